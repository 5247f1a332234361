package scoring

import (
	"fmt"

	"github.com/ZJUSCT/rankboard/internal/common"
	"github.com/ZJUSCT/rankboard/internal/database"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"go.uber.org/zap"
)

// Engine applies moderator scoring decisions. It is the only writer of score
// fields; re-scoring overwrites the previous values.
type Engine struct {
	ledger *database.Ledger
}

func NewEngine(ledger *database.Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// Decision is a moderator's verdict. Math uses Score; CP uses the three
// criteria.
type Decision struct {
	Score        *int `json:"score"`
	Completeness *int `json:"completeness"`
	Elegance     *int `json:"elegance"`
	Speed        *int `json:"speed"`
}

func (e *Engine) ScoreMathSolution(id uint, score int) (*models.MathSolution, error) {
	if err := common.CheckRange("score", score, 0, models.MaxMathScore); err != nil {
		return nil, err
	}
	sol, err := e.ledger.SetMathScore(id, score)
	if err != nil {
		return nil, fmt.Errorf("score math solution %d: %w", id, err)
	}
	zap.S().Infof("math solution %d of user %d scored %d", sol.ID, sol.UserID, score)
	return sol, nil
}

// ScoreCPSubmission sets all three criteria or, on any invalid value, none.
func (e *Engine) ScoreCPSubmission(id uint, completeness, elegance, speed int) (*models.CPSubmission, error) {
	for _, c := range []struct {
		field string
		value int
	}{
		{"completeness", completeness},
		{"elegance", elegance},
		{"speed", speed},
	} {
		if err := common.CheckRange(c.field, c.value, 0, models.MaxCriterionScore); err != nil {
			return nil, err
		}
	}
	sub, err := e.ledger.SetCPScores(id, completeness, elegance, speed)
	if err != nil {
		return nil, fmt.Errorf("score cp submission %d: %w", id, err)
	}
	total, _ := sub.Total()
	zap.S().Infof("cp submission %d of user %d scored %d/%d/%d (total %d)", sub.ID, sub.UserID, completeness, elegance, speed, total)
	return sub, nil
}

// Score dispatches a decision to the scoring rule of track.
func (e *Engine) Score(track models.Track, id uint, d Decision) (models.Submission, error) {
	switch track {
	case models.TrackMath:
		if d.Score == nil {
			return nil, common.Validationf("math scoring requires a score")
		}
		sol, err := e.ScoreMathSolution(id, *d.Score)
		if err != nil {
			return nil, err
		}
		return sol, nil
	case models.TrackCP:
		if d.Completeness == nil || d.Elegance == nil || d.Speed == nil {
			return nil, common.Validationf("cp scoring requires completeness, elegance and speed")
		}
		sub, err := e.ScoreCPSubmission(id, *d.Completeness, *d.Elegance, *d.Speed)
		if err != nil {
			return nil, err
		}
		return sub, nil
	}
	return nil, common.Validationf("unknown track %q", track)
}
