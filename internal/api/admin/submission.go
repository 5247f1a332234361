package admin

import (
	"net/http"

	"github.com/ZJUSCT/rankboard/internal/api"
	"github.com/ZJUSCT/rankboard/internal/pubsub"
	"github.com/ZJUSCT/rankboard/internal/scoring"
	"github.com/ZJUSCT/rankboard/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getReviewQueue lists unreviewed submissions of the track, oldest first.
func (h *Handler) getReviewQueue(c *gin.Context) {
	queue, err := h.svc.Ledger.PendingReview(api.Track(c))
	if err != nil {
		util.Fail(c, err)
		return
	}
	util.Success(c, queue, "Review queue retrieved")
}

// scoreSubmission applies a scoring decision and announces the change on the
// track's leaderboard topic.
func (h *Handler) scoreSubmission(c *gin.Context) {
	id, err := api.UintParam(c, "id")
	if err != nil {
		util.Fail(c, err)
		return
	}
	var req scoring.Decision
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	track := api.Track(c)
	actor := api.CurrentActor(c)
	sub, err := h.svc.Scoring.Score(track, id, req)
	if err != nil {
		util.Fail(c, err)
		return
	}

	total, _ := sub.Total()
	event := pubsub.LeaderboardChanged{
		Track:        string(track),
		SubmissionID: sub.SubmissionID(),
		UserID:       sub.Author(),
		Total:        total,
		ScoredBy:     actor.UserID,
		At:           h.svc.Ledger.Now(),
	}
	h.svc.Broker.Publish(pubsub.LeaderboardTopic(string(track)), pubsub.FormatMessage("leaderboard", event))
	zap.S().Infof("moderator %d scored %s submission %d", actor.UserID, track, id)

	util.Success(c, sub, "Submission scored")
}
