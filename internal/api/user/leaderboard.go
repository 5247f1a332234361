package user

import (
	"github.com/ZJUSCT/rankboard/internal/api"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"github.com/ZJUSCT/rankboard/internal/ranking"
	"github.com/ZJUSCT/rankboard/internal/util"
	"github.com/gin-gonic/gin"
)

// getLeaderboard serves one page of standings. page is 0-indexed.
func (h *Handler) getLeaderboard(c *gin.Context) {
	track := api.Track(c)
	perPage, err := api.ClampedQuery(c, "per_page", h.cfg.Tracks.For(track).PerPage, 1, maxPerPage)
	if err != nil {
		util.Fail(c, err)
		return
	}
	page, err := api.ClampedQuery(c, "page", 0, 0, maxPage)
	if err != nil {
		util.Fail(c, err)
		return
	}

	board, err := h.svc.Ranking.Board(track, page, perPage)
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, board, "Leaderboard retrieved successfully")
}

func (h *Handler) getUserStats(c *gin.Context) {
	userID, err := api.Int64Param(c, "userID")
	if err != nil {
		util.Fail(c, err)
		return
	}
	stats, err := h.svc.Ranking.UserStats(api.Track(c), userID)
	if err != nil {
		util.Fail(c, err)
		return
	}
	if stats == nil {
		util.Success(c, nil, "No reviewed submissions")
		return
	}
	util.Success(c, stats, "Stats retrieved successfully")
}

// getProfile reports a user's stats on every track. Tracks without a
// reviewed submission map to null.
func (h *Handler) getProfile(c *gin.Context) {
	userID, err := api.Int64Param(c, "userID")
	if err != nil {
		util.Fail(c, err)
		return
	}
	profile := make(map[models.Track]*ranking.Stats, len(models.Tracks))
	for _, track := range models.Tracks {
		stats, err := h.svc.Ranking.UserStats(track, userID)
		if err != nil {
			util.Fail(c, err)
			return
		}
		profile[track] = stats
	}
	util.Success(c, gin.H{"user_id": userID, "tracks": profile}, "Profile retrieved successfully")
}
