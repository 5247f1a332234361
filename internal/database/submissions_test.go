package database

import (
	"errors"
	"testing"
	"time"

	"github.com/ZJUSCT/rankboard/internal/common"
	"github.com/ZJUSCT/rankboard/internal/database/models"
)

func uintPtr(v uint) *uint { return &v }

func TestCreateMathSubmission(t *testing.T) {
	l := newTestLedger(t)
	pid := mustProblem(t, l, models.TrackMath, "P1")

	if _, err := l.CreateSubmission(models.TrackMath, 1, SubmissionInput{ArtifactRef: "https://cdn/x.pdf"}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("missing problem id: expected ErrValidation, got %v", err)
	}
	if _, err := l.CreateSubmission(models.TrackMath, 1, SubmissionInput{ProblemID: &pid}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("missing artifact: expected ErrValidation, got %v", err)
	}
	if _, err := l.CreateSubmission(models.TrackMath, 1, SubmissionInput{ProblemID: uintPtr(99), ArtifactRef: "https://cdn/x.pdf"}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown problem: expected ErrNotFound, got %v", err)
	}

	id, err := l.CreateSubmission(models.TrackMath, 1, SubmissionInput{ProblemID: &pid, ArtifactRef: "https://cdn/x.pdf"})
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	sol, err := l.GetMathSolution(id)
	if err != nil {
		t.Fatalf("GetMathSolution: %v", err)
	}
	if sol.Reviewed() || sol.Score != nil {
		t.Fatalf("new solution must be unreviewed, got %+v", sol)
	}
	if sol.SubmittedAt.IsZero() {
		t.Fatalf("submitted_at not set")
	}
}

func TestCreateCPSubmission(t *testing.T) {
	l := newTestLedger(t)

	if _, err := l.CreateSubmission(models.TrackCP, 1, SubmissionInput{Language: "go"}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("no code or artifact: expected ErrValidation, got %v", err)
	}
	if _, err := l.CreateSubmission(models.TrackCP, 1, SubmissionInput{ProblemID: uintPtr(5), Code: "x"}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown problem: expected ErrNotFound, got %v", err)
	}

	id, err := l.CreateSubmission(models.TrackCP, 1, SubmissionInput{Code: "package main", Language: "go"})
	if err != nil {
		t.Fatalf("unassociated submission: %v", err)
	}
	sub, err := l.GetSubmission(models.TrackCP, id)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if sub.Reviewed() {
		t.Fatalf("new submission must be unreviewed")
	}
	if _, ok := sub.Total(); ok {
		t.Fatalf("unreviewed submission must not have a total")
	}
}

func TestPendingReviewOrderAndTitles(t *testing.T) {
	l := newTestLedger(t)
	p1 := mustProblem(t, l, models.TrackMath, "Limits")
	p2 := mustProblem(t, l, models.TrackMath, "Series")

	a, _ := l.CreateSubmission(models.TrackMath, 10, SubmissionInput{ProblemID: &p2, ArtifactRef: "a"})
	b, _ := l.CreateSubmission(models.TrackMath, 11, SubmissionInput{ProblemID: &p1, ArtifactRef: "b"})
	c, _ := l.CreateSubmission(models.TrackMath, 12, SubmissionInput{ProblemID: &p1, ArtifactRef: "c"})
	if _, err := l.SetMathScore(b, 50); err != nil {
		t.Fatalf("SetMathScore: %v", err)
	}

	queue, err := l.PendingReview(models.TrackMath)
	if err != nil {
		t.Fatalf("PendingReview: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(queue))
	}
	if queue[0].SubmissionID() != a || queue[1].SubmissionID() != c {
		t.Fatalf("expected [%d %d], got [%d %d]", a, c, queue[0].SubmissionID(), queue[1].SubmissionID())
	}
	if title := queue[0].(*models.MathSolution).ProblemTitle; title != "Series" {
		t.Fatalf("expected title Series, got %q", title)
	}
}

func TestPendingCPNeedsAllCriteria(t *testing.T) {
	l := newTestLedger(t)
	id, _ := l.CreateSubmission(models.TrackCP, 3, SubmissionInput{Code: "x"})

	queue, err := l.PendingReview(models.TrackCP)
	if err != nil || len(queue) != 1 {
		t.Fatalf("expected one pending, got %v, %v", queue, err)
	}
	if _, err := l.SetCPScores(id, 0, 0, 0); err != nil {
		t.Fatalf("SetCPScores: %v", err)
	}
	queue, err = l.PendingReview(models.TrackCP)
	if err != nil || len(queue) != 0 {
		t.Fatalf("all-zero scores still count as reviewed, got %v, %v", queue, err)
	}
}

func TestSetScoreNotFound(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.SetMathScore(1, 10); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := l.SetCPScores(1, 1, 1, 1); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryMergesTracks(t *testing.T) {
	l := newTestLedger(t)
	pid := mustProblem(t, l, models.TrackMath, "P")

	m1, _ := l.CreateSubmission(models.TrackMath, 5, SubmissionInput{ProblemID: &pid, ArtifactRef: "m1"})
	c1, _ := l.CreateSubmission(models.TrackCP, 5, SubmissionInput{Code: "c1", Language: "cpp"})
	m2, _ := l.CreateSubmission(models.TrackMath, 5, SubmissionInput{ProblemID: &pid, ArtifactRef: "m2"})
	if _, err := l.CreateSubmission(models.TrackCP, 6, SubmissionInput{Code: "other user"}); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	if _, err := l.SetCPScores(c1, 4, 5, 6); err != nil {
		t.Fatalf("SetCPScores: %v", err)
	}

	history, err := l.History(5, 20)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	if history[0].SubmissionID != m2 || history[1].SubmissionID != c1 || history[2].SubmissionID != m1 {
		t.Fatalf("unexpected order %+v", history)
	}
	if history[1].Score == nil || *history[1].Score != 15 || history[1].MaxScore != models.MaxCPTotal {
		t.Fatalf("cp entry should carry its derived total, got %+v", history[1])
	}
	if history[0].Score != nil {
		t.Fatalf("unreviewed entry must have no score")
	}

	short, err := l.History(5, 2)
	if err != nil || len(short) != 2 || short[0].SubmissionID != m2 {
		t.Fatalf("limit not honoured: %+v, %v", short, err)
	}
}

func TestUserTotalsCountsReviewedOnly(t *testing.T) {
	l := newTestLedger(t)
	pid := mustProblem(t, l, models.TrackMath, "P")

	s1, _ := l.CreateSubmission(models.TrackMath, 1, SubmissionInput{ProblemID: &pid, ArtifactRef: "a"})
	s2, _ := l.CreateSubmission(models.TrackMath, 1, SubmissionInput{ProblemID: &pid, ArtifactRef: "b"})
	_, _ = l.CreateSubmission(models.TrackMath, 2, SubmissionInput{ProblemID: &pid, ArtifactRef: "c"})
	l.SetMathScore(s1, 30)
	l.SetMathScore(s2, 0)

	totals, err := l.UserTotals(models.TrackMath)
	if err != nil {
		t.Fatalf("UserTotals: %v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("expected only user 1, got %+v", totals)
	}
	if totals[0].UserID != 1 || totals[0].Total != 30 || totals[0].Submissions != 2 {
		t.Fatalf("unexpected totals %+v", totals[0])
	}
}

func TestRenderings(t *testing.T) {
	l := newTestLedger(t)
	if err := l.RecordRendering(&models.Rendering{ChannelID: 1}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	for i := int64(1); i <= 3; i++ {
		if err := l.RecordRendering(&models.Rendering{ChannelID: 9, MessageID: i, AuthorID: 100, Title: "board"}); err != nil {
			t.Fatalf("RecordRendering: %v", err)
		}
	}
	if err := l.RecordRendering(&models.Rendering{ChannelID: 8, MessageID: 4}); err != nil {
		t.Fatalf("RecordRendering: %v", err)
	}

	recent, err := l.RecentRenderings(9, 2)
	if err != nil {
		t.Fatalf("RecentRenderings: %v", err)
	}
	if len(recent) != 2 || recent[0].MessageID != 3 || recent[1].MessageID != 2 {
		t.Fatalf("unexpected renderings %+v", recent)
	}
	if recent[0].ID == "" {
		t.Fatalf("rendering id not assigned")
	}
}

func TestRecentRenderingsSameInstant(t *testing.T) {
	l := newTestLedger(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, msg := range []int64{5, 9, 7} {
		if err := l.RecordRendering(&models.Rendering{ChannelID: 3, MessageID: msg, CreatedAt: at}); err != nil {
			t.Fatalf("RecordRendering: %v", err)
		}
	}
	older := at.Add(-time.Hour)
	if err := l.RecordRendering(&models.Rendering{ChannelID: 3, MessageID: 100, CreatedAt: older}); err != nil {
		t.Fatalf("RecordRendering: %v", err)
	}

	recent, err := l.RecentRenderings(3, 10)
	if err != nil {
		t.Fatalf("RecentRenderings: %v", err)
	}
	want := []int64{9, 7, 5, 100}
	if len(recent) != len(want) {
		t.Fatalf("expected %d renderings, got %d", len(want), len(recent))
	}
	for i, msg := range want {
		if recent[i].MessageID != msg {
			t.Fatalf("position %d: expected message %d, got %d", i, msg, recent[i].MessageID)
		}
	}
}
