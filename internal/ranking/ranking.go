package ranking

import (
	"fmt"
	"sort"

	"github.com/ZJUSCT/rankboard/internal/database"
	"github.com/ZJUSCT/rankboard/internal/database/models"
)

// Entry is one leaderboard row. Rank is competition-style: tied totals share
// a rank and the next distinct total skips ahead.
type Entry struct {
	Rank       int   `json:"rank"`
	UserID     int64 `json:"user_id"`
	TotalScore int   `json:"total_score"`
}

type Stats struct {
	TotalScore      int     `json:"total_score"`
	SubmissionCount int     `json:"submission_count"`
	Average         float64 `json:"average"`
	Rank            int     `json:"rank"`
}

// Standings orders user totals by total descending, then user id ascending,
// and assigns competition ranks.
func Standings(totals []database.UserTotal) []Entry {
	sorted := make([]database.UserTotal, len(totals))
	copy(sorted, totals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Total != sorted[j].Total {
			return sorted[i].Total > sorted[j].Total
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	entries := make([]Entry, len(sorted))
	for i, t := range sorted {
		rank := i + 1
		if i > 0 && t.Total == sorted[i-1].Total {
			rank = entries[i-1].Rank
		}
		entries[i] = Entry{Rank: rank, UserID: t.UserID, TotalScore: t.Total}
	}
	return entries
}

// Page slices entries to [offset, offset+limit). Out-of-range requests yield
// an empty page.
func Page(entries []Entry, offset, limit int) []Entry {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(entries) {
		return []Entry{}
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	page := make([]Entry, end-offset)
	copy(page, entries[offset:end])
	return page
}

// StatsFor computes a user's stats from a snapshot of totals. It returns nil
// when the user has no reviewed submission.
func StatsFor(totals []database.UserTotal, userID int64) *Stats {
	var own *database.UserTotal
	for i := range totals {
		if totals[i].UserID == userID {
			own = &totals[i]
			break
		}
	}
	if own == nil || own.Submissions == 0 {
		return nil
	}

	ahead := 0
	for _, t := range totals {
		if t.Total > own.Total {
			ahead++
		}
	}
	return &Stats{
		TotalScore:      own.Total,
		SubmissionCount: own.Submissions,
		Average:         float64(own.Total) / float64(own.Submissions),
		Rank:            ahead + 1,
	}
}

// PageCount is ceil(total/perPage).
func PageCount(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Engine recomputes rankings on demand. Each call works from one aggregate
// snapshot of the ledger; consecutive calls may observe different data.
type Engine struct {
	ledger *database.Ledger
}

func NewEngine(ledger *database.Ledger) *Engine {
	return &Engine{ledger: ledger}
}

func (e *Engine) standings(track models.Track) ([]Entry, error) {
	totals, err := e.ledger.UserTotals(track)
	if err != nil {
		return nil, fmt.Errorf("rank %s: %w", track, err)
	}
	return Standings(totals), nil
}

func (e *Engine) Leaderboard(track models.Track, offset, limit int) ([]Entry, error) {
	entries, err := e.standings(track)
	if err != nil {
		return nil, err
	}
	return Page(entries, offset, limit), nil
}

func (e *Engine) UserStats(track models.Track, userID int64) (*Stats, error) {
	totals, err := e.ledger.UserTotals(track)
	if err != nil {
		return nil, fmt.Errorf("stats %s: %w", track, err)
	}
	return StatsFor(totals, userID), nil
}

func (e *Engine) TotalRankedUsers(track models.Track) (int, error) {
	totals, err := e.ledger.UserTotals(track)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", track, err)
	}
	return len(totals), nil
}

// Board is a page of the leaderboard together with the paging totals taken
// from the same snapshot.
type Board struct {
	Track   models.Track `json:"track"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
	Pages   int          `json:"pages"`
	Total   int          `json:"total"`
	Entries []Entry      `json:"entries"`
}

// Board returns page (0-indexed) of perPage entries.
func (e *Engine) Board(track models.Track, page, perPage int) (*Board, error) {
	entries, err := e.standings(track)
	if err != nil {
		return nil, err
	}
	if page < 0 {
		page = 0
	}
	return &Board{
		Track:   track,
		Page:    page,
		PerPage: perPage,
		Pages:   PageCount(len(entries), perPage),
		Total:   len(entries),
		Entries: Page(entries, page*perPage, perPage),
	}, nil
}
