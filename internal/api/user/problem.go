package user

import (
	"github.com/ZJUSCT/rankboard/internal/api"
	"github.com/ZJUSCT/rankboard/internal/util"
	"github.com/gin-gonic/gin"
)

const (
	maxPerPage         = 50
	maxProblemsPerPage = 10
	maxPage            = 1 << 20
)

func (h *Handler) listProblems(c *gin.Context) {
	track := api.Track(c)
	perPage, err := api.ClampedQuery(c, "per_page", maxProblemsPerPage, 1, maxProblemsPerPage)
	if err != nil {
		util.Fail(c, err)
		return
	}
	page, err := api.ClampedQuery(c, "page", 0, 0, maxPage)
	if err != nil {
		util.Fail(c, err)
		return
	}

	problems, err := h.svc.Ledger.ListProblems(track, perPage, page*perPage)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, problems, "Problems retrieved successfully")
}

func (h *Handler) getProblem(c *gin.Context) {
	id, err := api.UintParam(c, "id")
	if err != nil {
		util.Fail(c, err)
		return
	}
	problem, err := h.svc.Ledger.GetProblem(api.Track(c), id)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, problem, "Problem found")
}
