package database

import (
	"fmt"

	"github.com/ZJUSCT/rankboard/internal/database/models"
)

// UserTotal is one user's aggregate over the reviewed submissions of a track.
type UserTotal struct {
	UserID      int64 `json:"user_id"`
	Total       int   `json:"total"`
	Submissions int   `json:"submissions"`
}

// UserTotals groups the reviewed submissions of a track by user in a single
// query. Unreviewed submissions are excluded entirely.
func (l *Ledger) UserTotals(track models.Track) ([]UserTotal, error) {
	rows := make([]UserTotal, 0)
	var err error
	switch track {
	case models.TrackMath:
		err = l.db.Model(&models.MathSolution{}).
			Select("user_id, SUM(score) AS total, COUNT(*) AS submissions").
			Where("score IS NOT NULL").
			Group("user_id").
			Scan(&rows).Error
	case models.TrackCP:
		err = l.db.Model(&models.CPSubmission{}).
			Select("user_id, SUM(completeness + elegance + speed) AS total, COUNT(*) AS submissions").
			Where("completeness IS NOT NULL AND elegance IS NOT NULL AND speed IS NOT NULL").
			Group("user_id").
			Scan(&rows).Error
	default:
		return nil, checkTrack(track)
	}
	if err != nil {
		return nil, fmt.Errorf("aggregate %s totals: %w", track, err)
	}
	return rows, nil
}
