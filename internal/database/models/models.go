package models

import (
	"encoding/json"
	"time"
)

// Track is one of the independent competition categories.
type Track string

const (
	TrackMath Track = "math"
	TrackCP   Track = "cp"
)

var Tracks = []Track{TrackMath, TrackCP}

// Score bounds. A CP total is the sum of three criteria.
const (
	MaxMathScore      = 100
	MaxCriterionScore = 10
	MaxCPTotal        = 3 * MaxCriterionScore
)

func ParseTrack(s string) (Track, bool) {
	switch Track(s) {
	case TrackMath:
		return TrackMath, true
	case TrackCP:
		return TrackCP, true
	}
	return "", false
}

func (t Track) Valid() bool {
	_, ok := ParseTrack(string(t))
	return ok
}

// ProblemTable is the table holding this track's problems. Both tables share
// the Problem shape.
func (t Track) ProblemTable() string {
	if t == TrackCP {
		return "cp_problems"
	}
	return "math_problems"
}

type Problem struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Track      Track     `gorm:"-" json:"track"`
	Title      string    `gorm:"not null" json:"title"`
	Reference  string    `gorm:"not null" json:"reference"`
	Platform   string    `json:"platform,omitempty"`
	Difficulty string    `json:"difficulty,omitempty"`
	PostedBy   int64     `gorm:"not null" json:"posted_by"`
	PostedAt   time.Time `json:"posted_at"`
}

// Submission is the track-independent view of a math solution or a CP
// submission.
type Submission interface {
	SubmissionID() uint
	SubmissionTrack() Track
	Author() int64
	Submitted() time.Time
	// Reviewed reports whether every score field required by the track is set.
	Reviewed() bool
	// Total is the derived score; ok is false while unreviewed.
	Total() (total int, ok bool)
}

type MathSolution struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProblemID   uint      `gorm:"not null;index" json:"problem_id"`
	UserID      int64     `gorm:"not null;index" json:"user_id"`
	ArtifactRef string    `gorm:"not null" json:"artifact_ref"`
	Score       *int      `json:"score"`
	SubmittedAt time.Time `gorm:"index" json:"submitted_at"`

	ProblemTitle string `gorm:"-" json:"problem_title,omitempty"`
}

func (s *MathSolution) SubmissionID() uint     { return s.ID }
func (s *MathSolution) SubmissionTrack() Track { return TrackMath }
func (s *MathSolution) Author() int64          { return s.UserID }
func (s *MathSolution) Submitted() time.Time   { return s.SubmittedAt }
func (s *MathSolution) Reviewed() bool         { return s.Score != nil }

func (s *MathSolution) Total() (int, bool) {
	if s.Score == nil {
		return 0, false
	}
	return *s.Score, true
}

func (s *MathSolution) MarshalJSON() ([]byte, error) {
	type alias MathSolution
	return json.Marshal(struct {
		*alias
		Track    Track `json:"track"`
		Reviewed bool  `json:"reviewed"`
		Total    *int  `json:"total"`
	}{(*alias)(s), TrackMath, s.Reviewed(), totalPtr(s)})
}

type CPSubmission struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProblemID    *uint     `gorm:"index" json:"problem_id"`
	UserID       int64     `gorm:"not null;index" json:"user_id"`
	Code         string    `json:"code,omitempty"`
	Language     string    `json:"language,omitempty"`
	ArtifactRef  string    `json:"artifact_ref,omitempty"`
	Completeness *int      `json:"completeness"`
	Elegance     *int      `json:"elegance"`
	Speed        *int      `json:"speed"`
	SubmittedAt  time.Time `gorm:"index" json:"submitted_at"`

	ProblemTitle string `gorm:"-" json:"problem_title,omitempty"`
}

func (s *CPSubmission) SubmissionID() uint     { return s.ID }
func (s *CPSubmission) SubmissionTrack() Track { return TrackCP }
func (s *CPSubmission) Author() int64          { return s.UserID }
func (s *CPSubmission) Submitted() time.Time   { return s.SubmittedAt }

func (s *CPSubmission) Reviewed() bool {
	return s.Completeness != nil && s.Elegance != nil && s.Speed != nil
}

func (s *CPSubmission) Total() (int, bool) {
	if !s.Reviewed() {
		return 0, false
	}
	return *s.Completeness + *s.Elegance + *s.Speed, true
}

func (s *CPSubmission) MarshalJSON() ([]byte, error) {
	type alias CPSubmission
	return json.Marshal(struct {
		*alias
		Track    Track `json:"track"`
		Reviewed bool  `json:"reviewed"`
		Total    *int  `json:"total"`
	}{(*alias)(s), TrackCP, s.Reviewed(), totalPtr(s)})
}

func totalPtr(s Submission) *int {
	total, ok := s.Total()
	if !ok {
		return nil
	}
	return &total
}

// Rendering is a leaderboard post made by the external renderer, recorded so
// later publications can decide whether to edit it in place.
type Rendering struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	ChannelID int64     `gorm:"index" json:"channel_id"`
	MessageID int64     `json:"message_id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
}
