package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ZJUSCT/rankboard/internal/common"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SubmissionInput struct {
	ProblemID   *uint  `json:"problem_id"`
	ArtifactRef string `json:"artifact_ref"`
	Code        string `json:"code"`
	Language    string `json:"language"`
}

// CreateSubmission stores a new, unscored submission. Math solutions need an
// existing math problem and an artifact; CP submissions need code or an
// artifact and may be unassociated.
func (l *Ledger) CreateSubmission(track models.Track, userID int64, in SubmissionInput) (uint, error) {
	if err := checkTrack(track); err != nil {
		return 0, err
	}
	artifact := strings.TrimSpace(in.ArtifactRef)

	var id uint
	var err error
	switch track {
	case models.TrackMath:
		if in.ProblemID == nil {
			return 0, common.Validationf("math solutions must reference a problem")
		}
		if artifact == "" {
			return 0, common.Validationf("math solutions require an artifact")
		}
		sol := models.MathSolution{
			ProblemID:   *in.ProblemID,
			UserID:      userID,
			ArtifactRef: artifact,
		}
		err = l.write(func(tx *gorm.DB, now time.Time) error {
			if _, err := getProblem(tx, track, sol.ProblemID); err != nil {
				return err
			}
			sol.SubmittedAt = now
			return tx.Create(&sol).Error
		})
		id = sol.ID

	case models.TrackCP:
		if strings.TrimSpace(in.Code) == "" && artifact == "" {
			return 0, common.Validationf("cp submissions require code or an artifact")
		}
		sub := models.CPSubmission{
			ProblemID:   in.ProblemID,
			UserID:      userID,
			Code:        in.Code,
			Language:    strings.TrimSpace(in.Language),
			ArtifactRef: artifact,
		}
		err = l.write(func(tx *gorm.DB, now time.Time) error {
			if sub.ProblemID != nil {
				if _, err := getProblem(tx, track, *sub.ProblemID); err != nil {
					return err
				}
			}
			sub.SubmittedAt = now
			return tx.Create(&sub).Error
		})
		id = sub.ID
	}
	if err != nil {
		return 0, fmt.Errorf("create %s submission: %w", track, err)
	}
	zap.S().Infof("%s submission %d created by user %d", track, id, userID)
	return id, nil
}

func (l *Ledger) GetMathSolution(id uint) (*models.MathSolution, error) {
	return getMathSolution(l.db, id)
}

func (l *Ledger) GetCPSubmission(id uint) (*models.CPSubmission, error) {
	return getCPSubmission(l.db, id)
}

// GetSubmission loads a submission of either track.
func (l *Ledger) GetSubmission(track models.Track, id uint) (models.Submission, error) {
	switch track {
	case models.TrackMath:
		sol, err := l.GetMathSolution(id)
		if err != nil {
			return nil, err
		}
		return sol, nil
	case models.TrackCP:
		sub, err := l.GetCPSubmission(id)
		if err != nil {
			return nil, err
		}
		return sub, nil
	}
	return nil, checkTrack(track)
}

func getMathSolution(db *gorm.DB, id uint) (*models.MathSolution, error) {
	var sol models.MathSolution
	if err := db.Where("id = ?", id).First(&sol).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("math solution %d", id)
		}
		return nil, err
	}
	return &sol, nil
}

func getCPSubmission(db *gorm.DB, id uint) (*models.CPSubmission, error) {
	var sub models.CPSubmission
	if err := db.Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("cp submission %d", id)
		}
		return nil, err
	}
	return &sub, nil
}

// SetMathScore overwrites the score of a math solution. Range checks belong
// to the scoring engine.
func (l *Ledger) SetMathScore(id uint, score int) (*models.MathSolution, error) {
	var sol *models.MathSolution
	err := l.write(func(tx *gorm.DB, _ time.Time) error {
		var err error
		if sol, err = getMathSolution(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&models.MathSolution{}).Where("id = ?", id).Update("score", score).Error; err != nil {
			return err
		}
		sol.Score = &score
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sol, nil
}

// SetCPScores overwrites all three criteria of a CP submission in a single
// statement.
func (l *Ledger) SetCPScores(id uint, completeness, elegance, speed int) (*models.CPSubmission, error) {
	var sub *models.CPSubmission
	err := l.write(func(tx *gorm.DB, _ time.Time) error {
		var err error
		if sub, err = getCPSubmission(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&models.CPSubmission{}).Where("id = ?", id).Updates(map[string]interface{}{
			"completeness": completeness,
			"elegance":     elegance,
			"speed":        speed,
		}).Error; err != nil {
			return err
		}
		sub.Completeness = &completeness
		sub.Elegance = &elegance
		sub.Speed = &speed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// PendingMath lists unscored math solutions, oldest first.
func (l *Ledger) PendingMath() ([]models.MathSolution, error) {
	subs := make([]models.MathSolution, 0)
	if err := l.db.Where("score IS NULL").Order("submitted_at asc, id asc").Find(&subs).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ProblemID)
	}
	titles, err := l.problemTitles(models.TrackMath, ids)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].ProblemTitle = titles[subs[i].ProblemID]
	}
	return subs, nil
}

// PendingCP lists CP submissions missing any criterion, oldest first.
func (l *Ledger) PendingCP() ([]models.CPSubmission, error) {
	subs := make([]models.CPSubmission, 0)
	if err := l.db.Where("completeness IS NULL OR elegance IS NULL OR speed IS NULL").
		Order("submitted_at asc, id asc").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(subs))
	for _, s := range subs {
		if s.ProblemID != nil {
			ids = append(ids, *s.ProblemID)
		}
	}
	titles, err := l.problemTitles(models.TrackCP, ids)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].ProblemID != nil {
			subs[i].ProblemTitle = titles[*subs[i].ProblemID]
		}
	}
	return subs, nil
}

// PendingReview is the review queue of a track: unreviewed submissions,
// oldest first.
func (l *Ledger) PendingReview(track models.Track) ([]models.Submission, error) {
	queue := make([]models.Submission, 0)
	switch track {
	case models.TrackMath:
		subs, err := l.PendingMath()
		if err != nil {
			return nil, err
		}
		for i := range subs {
			queue = append(queue, &subs[i])
		}
	case models.TrackCP:
		subs, err := l.PendingCP()
		if err != nil {
			return nil, err
		}
		for i := range subs {
			queue = append(queue, &subs[i])
		}
	default:
		return nil, checkTrack(track)
	}
	return queue, nil
}

// HistoryEntry is one line of a user's submission history across tracks.
type HistoryEntry struct {
	Track        models.Track `json:"track"`
	SubmissionID uint         `json:"submission_id"`
	ProblemID    *uint        `json:"problem_id"`
	Language     string       `json:"language,omitempty"`
	Score        *int         `json:"score"`
	MaxScore     int          `json:"max_score"`
	SubmittedAt  time.Time    `json:"submitted_at"`
}

// History merges a user's math and CP submissions, newest first, truncated to
// limit.
func (l *Ledger) History(userID int64, limit int) ([]HistoryEntry, error) {
	entries := make([]HistoryEntry, 0)
	if limit <= 0 {
		return entries, nil
	}

	var maths []models.MathSolution
	if err := l.db.Where("user_id = ?", userID).Order("submitted_at desc, id desc").Limit(limit).Find(&maths).Error; err != nil {
		return nil, err
	}
	var cps []models.CPSubmission
	if err := l.db.Where("user_id = ?", userID).Order("submitted_at desc, id desc").Limit(limit).Find(&cps).Error; err != nil {
		return nil, err
	}

	for i := range maths {
		s := &maths[i]
		problemID := s.ProblemID
		entries = append(entries, HistoryEntry{
			Track:        models.TrackMath,
			SubmissionID: s.ID,
			ProblemID:    &problemID,
			Score:        scorePtr(s),
			MaxScore:     models.MaxMathScore,
			SubmittedAt:  s.SubmittedAt,
		})
	}
	for i := range cps {
		s := &cps[i]
		entries = append(entries, HistoryEntry{
			Track:        models.TrackCP,
			SubmissionID: s.ID,
			ProblemID:    s.ProblemID,
			Language:     s.Language,
			Score:        scorePtr(s),
			MaxScore:     models.MaxCPTotal,
			SubmittedAt:  s.SubmittedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SubmittedAt.After(entries[j].SubmittedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func scorePtr(s models.Submission) *int {
	total, ok := s.Total()
	if !ok {
		return nil
	}
	return &total
}
