package admin

import (
	"net/http"

	"github.com/ZJUSCT/rankboard/internal/api"
	"github.com/ZJUSCT/rankboard/internal/common"
	"github.com/ZJUSCT/rankboard/internal/database"
	"github.com/ZJUSCT/rankboard/internal/util"
	"github.com/gin-gonic/gin"
)

func (h *Handler) createProblem(c *gin.Context) {
	var req database.ProblemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	req.PostedBy = api.CurrentActor(c).UserID

	track := api.Track(c)
	id, err := h.svc.Ledger.CreateProblem(track, req)
	if err != nil {
		util.Fail(c, err)
		return
	}
	problem, err := h.svc.Ledger.GetProblem(track, id)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, problem, "Problem posted")
}

func (h *Handler) updateProblem(c *gin.Context) {
	id, err := api.UintParam(c, "id")
	if err != nil {
		util.Fail(c, err)
		return
	}
	var req database.ProblemUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	track := api.Track(c)
	updated, err := h.svc.Ledger.UpdateProblem(track, id, req)
	if err != nil {
		util.Fail(c, err)
		return
	}
	if !updated {
		if req.Title == nil && req.Difficulty == nil {
			util.Fail(c, common.Validationf("nothing to update"))
			return
		}
		util.Fail(c, common.NotFoundf("%s problem %d", track, id))
		return
	}
	problem, err := h.svc.Ledger.GetProblem(track, id)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, problem, "Problem updated")
}

func (h *Handler) deleteProblem(c *gin.Context) {
	id, err := api.UintParam(c, "id")
	if err != nil {
		util.Fail(c, err)
		return
	}
	track := api.Track(c)
	deleted, err := h.svc.Ledger.DeleteProblem(track, id)
	if err != nil {
		util.Fail(c, err)
		return
	}
	if !deleted {
		util.Fail(c, common.NotFoundf("%s problem %d", track, id))
		return
	}
	util.Success(c, nil, "Problem deleted")
}
