package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ZJUSCT/rankboard/internal/common"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger is the durable store for problems and submissions of both tracks.
// Writes go through a single writer lock and commit before returning; reads
// are plain queries.
type Ledger struct {
	db  *gorm.DB
	mu  sync.Mutex
	now func() time.Time
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// SetClock replaces the time source used for posted_at and submitted_at.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Now reads the ledger clock.
func (l *Ledger) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now()
}

func (l *Ledger) write(fn func(tx *gorm.DB, now time.Time) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	return l.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx, now)
	})
}

func checkTrack(track models.Track) error {
	if !track.Valid() {
		return common.Validationf("unknown track %q", track)
	}
	return nil
}

type ProblemInput struct {
	Title      string `json:"title"`
	Reference  string `json:"reference"`
	Platform   string `json:"platform"`
	Difficulty string `json:"difficulty"`
	PostedBy   int64  `json:"-"`
}

// ProblemUpdate carries the moderator-editable fields; nil means unchanged.
type ProblemUpdate struct {
	Title      *string `json:"title"`
	Difficulty *string `json:"difficulty"`
}

// isAbsoluteURL reports whether ref starts with an explicit scheme://.
func isAbsoluteURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme != "" && strings.HasPrefix(strings.ToLower(ref), u.Scheme+"://")
}

func (l *Ledger) CreateProblem(track models.Track, in ProblemInput) (uint, error) {
	if err := checkTrack(track); err != nil {
		return 0, err
	}
	title := strings.TrimSpace(in.Title)
	ref := strings.TrimSpace(in.Reference)
	if title == "" {
		return 0, common.Validationf("problem title is required")
	}
	if ref == "" {
		return 0, common.Validationf("problem reference is required")
	}
	if track == models.TrackCP && !isAbsoluteURL(ref) {
		return 0, common.Validationf("problem reference %q must be an absolute URL", ref)
	}

	problem := models.Problem{
		Title:      title,
		Reference:  ref,
		Difficulty: strings.TrimSpace(in.Difficulty),
		PostedBy:   in.PostedBy,
	}
	if track == models.TrackCP {
		problem.Platform = strings.TrimSpace(in.Platform)
	}

	err := l.write(func(tx *gorm.DB, now time.Time) error {
		problem.PostedAt = now
		return tx.Table(track.ProblemTable()).Create(&problem).Error
	})
	if err != nil {
		return 0, fmt.Errorf("create %s problem: %w", track, err)
	}
	zap.S().Infof("%s problem %d '%s' posted by %d", track, problem.ID, problem.Title, problem.PostedBy)
	return problem.ID, nil
}

func getProblem(db *gorm.DB, track models.Track, id uint) (*models.Problem, error) {
	var problem models.Problem
	if err := db.Table(track.ProblemTable()).Where("id = ?", id).First(&problem).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundf("%s problem %d", track, id)
		}
		return nil, err
	}
	problem.Track = track
	return &problem, nil
}

func (l *Ledger) GetProblem(track models.Track, id uint) (*models.Problem, error) {
	if err := checkTrack(track); err != nil {
		return nil, err
	}
	return getProblem(l.db, track, id)
}

// ListProblems returns problems newest first. The caller owns any clamping of
// limit.
func (l *Ledger) ListProblems(track models.Track, limit, offset int) ([]models.Problem, error) {
	if err := checkTrack(track); err != nil {
		return nil, err
	}
	problems := make([]models.Problem, 0)
	if limit <= 0 {
		return problems, nil
	}
	if offset < 0 {
		offset = 0
	}
	if err := l.db.Table(track.ProblemTable()).
		Order("posted_at desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&problems).Error; err != nil {
		return nil, err
	}
	for i := range problems {
		problems[i].Track = track
	}
	return problems, nil
}

// UpdateProblem applies a moderator edit to a CP problem. It reports false
// when nothing was supplied or the problem does not exist.
func (l *Ledger) UpdateProblem(track models.Track, id uint, upd ProblemUpdate) (bool, error) {
	if err := checkTrack(track); err != nil {
		return false, err
	}
	if track != models.TrackCP {
		return false, common.Validationf("%s problems cannot be edited", track)
	}

	fields := make(map[string]interface{})
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return false, common.Validationf("problem title cannot be empty")
		}
		fields["title"] = title
	}
	if upd.Difficulty != nil {
		fields["difficulty"] = strings.TrimSpace(*upd.Difficulty)
	}
	if len(fields) == 0 {
		return false, nil
	}

	var updated bool
	err := l.write(func(tx *gorm.DB, _ time.Time) error {
		result := tx.Table(track.ProblemTable()).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		updated = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update %s problem %d: %w", track, id, err)
	}
	return updated, nil
}

// DeleteProblem removes a CP problem. Its submissions are kept and keep
// pointing at the removed id.
func (l *Ledger) DeleteProblem(track models.Track, id uint) (bool, error) {
	if err := checkTrack(track); err != nil {
		return false, err
	}
	if track != models.TrackCP {
		return false, common.Validationf("%s problems cannot be deleted", track)
	}

	var deleted bool
	err := l.write(func(tx *gorm.DB, _ time.Time) error {
		result := tx.Table(track.ProblemTable()).Where("id = ?", id).Delete(&models.Problem{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete %s problem %d: %w", track, id, err)
	}
	if deleted {
		zap.S().Infof("%s problem %d deleted", track, id)
	}
	return deleted, nil
}

// problemTitles resolves titles for the given ids. Missing problems are simply
// absent from the result.
func (l *Ledger) problemTitles(track models.Track, ids []uint) (map[uint]string, error) {
	titles := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}
	var rows []models.Problem
	if err := l.db.Table(track.ProblemTable()).Select("id, title").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		titles[p.ID] = p.Title
	}
	return titles, nil
}
