package user

import (
	"net/http"

	"github.com/ZJUSCT/rankboard/internal/api"
	"github.com/ZJUSCT/rankboard/internal/database"
	"github.com/ZJUSCT/rankboard/internal/util"
	"github.com/gin-gonic/gin"
)

const maxHistory = 20

func (h *Handler) submit(c *gin.Context) {
	var req database.SubmissionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	track := api.Track(c)
	actor := api.CurrentActor(c)
	id, err := h.svc.Ledger.CreateSubmission(track, actor.UserID, req)
	if err != nil {
		util.Fail(c, err)
		return
	}
	sub, err := h.svc.Ledger.GetSubmission(track, id)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, sub, "Submission received")
}

// getHistory lists the caller's submissions on both tracks, newest first.
func (h *Handler) getHistory(c *gin.Context) {
	limit, err := api.ClampedQuery(c, "limit", 10, 1, maxHistory)
	if err != nil {
		util.Fail(c, err)
		return
	}
	entries, err := h.svc.Ledger.History(api.CurrentActor(c).UserID, limit)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, entries, "History retrieved successfully")
}
