package admin

import (
	"net/http"

	"github.com/ZJUSCT/rankboard/internal/api"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"github.com/ZJUSCT/rankboard/internal/util"
	"github.com/gin-gonic/gin"
)

type planRequest struct {
	ChannelID int64 `json:"channel_id" binding:"required"`
}

// planPublication tells the renderer whether to edit a previous leaderboard
// post in the channel or to post a new one.
func (h *Handler) planPublication(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	plan, err := h.svc.Publication.Plan(req.ChannelID, api.Track(c))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, plan, "Publication planned")
}

type renderingRequest struct {
	ChannelID int64  `json:"channel_id"`
	MessageID int64  `json:"message_id"`
	AuthorID  int64  `json:"author_id"`
	Title     string `json:"title"`
}

// recordRendering stores a post the renderer made so later plans can find it.
func (h *Handler) recordRendering(c *gin.Context) {
	var req renderingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	rendering := models.Rendering{
		ChannelID: req.ChannelID,
		MessageID: req.MessageID,
		AuthorID:  req.AuthorID,
		Title:     req.Title,
	}
	if err := h.svc.Ledger.RecordRendering(&rendering); err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, rendering, "Rendering recorded")
}
