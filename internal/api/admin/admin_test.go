package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ZJUSCT/rankboard/internal/auth"
	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/ZJUSCT/rankboard/internal/database"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"github.com/ZJUSCT/rankboard/internal/pubsub"
	"github.com/ZJUSCT/rankboard/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	secret        = "test-secret"
	moderatorRole = int64(555)
	selfID        = int64(9000)
)

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	svc    *service.Services
	mod    string
	member string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.InitMemory()
	if err != nil {
		t.Fatalf("InitMemory: %v", err)
	}
	cfg := &config.Config{}
	cfg.Auth.JWT.Secret = secret
	cfg.Moderation.RoleID = moderatorRole
	cfg.Publication.SelfID = selfID
	cfg.Tracks.Math = config.Track{Title: "Mathematics Leaderboard", PerPage: 10}
	cfg.Tracks.CP = config.Track{Title: "Competitive Programming Leaderboard", PerPage: 10}
	svc := service.New(cfg, db)

	s := &testServer{t: t, router: NewAdminRouter(cfg, svc), svc: svc}
	s.mod = s.token(auth.Actor{UserID: 1, Roles: []int64{moderatorRole}})
	s.member = s.token(auth.Actor{UserID: 2, ManageMessages: true})
	return s
}

func (s *testServer) token(actor auth.Actor) string {
	s.t.Helper()
	token, err := auth.GenerateJWT(actor, secret, 1)
	if err != nil {
		s.t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	raw := []byte{}
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		s.t.Fatalf("%s %s: invalid body %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func TestModeratorOnly(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"title": "A", "reference": "https://cf/1A"}

	if code, _ := s.do(http.MethodPost, "/api/v1/tracks/cp/problems", "", body); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/v1/tracks/cp/problems", s.member, body); code != http.StatusForbidden {
		t.Fatalf("manage_messages is not enough once a role is configured, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/v1/renderings", s.member, map[string]int64{"channel_id": 1, "message_id": 2}); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if code, env := s.do(http.MethodPost, "/api/v1/tracks/cp/problems", s.mod, body); code != http.StatusOK {
		t.Fatalf("moderator create: %d %s", code, env.Message)
	}
}

func TestProblemManagement(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/tracks/cp/problems", s.mod, map[string]string{"title": "A", "reference": "cf/1A"})
	if code != http.StatusBadRequest {
		t.Fatalf("relative reference: expected 400, got %d", code)
	}

	code, env = s.do(http.MethodPost, "/api/v1/tracks/cp/problems", s.mod, map[string]string{
		"title": "A", "reference": "https://codeforces.com/1/A", "platform": "Codeforces", "difficulty": "800",
	})
	if code != http.StatusOK {
		t.Fatalf("create: %d %s", code, env.Message)
	}
	var problem models.Problem
	if err := json.Unmarshal(env.Data, &problem); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if problem.PostedBy != 1 || problem.Track != models.TrackCP {
		t.Fatalf("unexpected problem %+v", problem)
	}

	code, env = s.do(http.MethodPatch, "/api/v1/tracks/cp/problems/1", s.mod, map[string]string{"difficulty": "1200"})
	if code != http.StatusOK {
		t.Fatalf("patch: %d %s", code, env.Message)
	}
	if err := json.Unmarshal(env.Data, &problem); err != nil || problem.Difficulty != "1200" || problem.Title != "A" {
		t.Fatalf("unexpected patched problem %+v (%v)", problem, err)
	}
	if code, _ := s.do(http.MethodPatch, "/api/v1/tracks/cp/problems/1", s.mod, map[string]string{}); code != http.StatusBadRequest {
		t.Fatalf("empty patch: expected 400, got %d", code)
	}
	if code, _ := s.do(http.MethodPatch, "/api/v1/tracks/cp/problems/50", s.mod, map[string]string{"title": "B"}); code != http.StatusNotFound {
		t.Fatalf("missing problem: expected 404, got %d", code)
	}

	if code, _ := s.do(http.MethodDelete, "/api/v1/tracks/cp/problems/1", s.mod, nil); code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	if code, _ := s.do(http.MethodDelete, "/api/v1/tracks/cp/problems/1", s.mod, nil); code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", code)
	}

	mathID, err := s.svc.Ledger.CreateProblem(models.TrackMath, database.ProblemInput{Title: "M", Reference: "https://x/m.pdf"})
	if err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}
	if code, _ := s.do(http.MethodDelete, "/api/v1/tracks/math/problems/"+itoa(mathID), s.mod, nil); code != http.StatusBadRequest {
		t.Fatalf("math problems cannot be deleted, got %d", code)
	}
}

func TestScoringPublishesChange(t *testing.T) {
	s := newTestServer(t)
	subID, err := s.svc.Ledger.CreateSubmission(models.TrackCP, 42, database.SubmissionInput{Code: "x", Language: "go"})
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	code, env := s.do(http.MethodGet, "/api/v1/tracks/cp/review-queue", s.mod, nil)
	if code != http.StatusOK {
		t.Fatalf("queue: %d %s", code, env.Message)
	}
	var queue []struct {
		ID       uint `json:"id"`
		Reviewed bool `json:"reviewed"`
	}
	if err := json.Unmarshal(env.Data, &queue); err != nil || len(queue) != 1 || queue[0].ID != subID {
		t.Fatalf("unexpected queue %s (%v)", env.Data, err)
	}

	scoredAt := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	s.svc.Ledger.SetClock(func() time.Time { return scoredAt })

	events, unsubscribe := s.svc.Broker.Subscribe(pubsub.LeaderboardTopic("cp"))
	defer unsubscribe()

	path := "/api/v1/tracks/cp/submissions/" + itoa(subID) + "/score"
	if code, _ := s.do(http.MethodPost, path, s.mod, map[string]int{"completeness": 11, "elegance": 5, "speed": 5}); code != http.StatusBadRequest {
		t.Fatalf("out of range: expected 400, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, path, s.mod, map[string]int{"completeness": 5}); code != http.StatusBadRequest {
		t.Fatalf("partial decision: expected 400, got %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/v1/tracks/cp/submissions/999/score", s.mod, map[string]int{"completeness": 1, "elegance": 1, "speed": 1}); code != http.StatusNotFound {
		t.Fatalf("missing submission: expected 404, got %d", code)
	}
	select {
	case msg := <-events:
		t.Fatalf("failed scoring must not publish, got %s", msg)
	default:
	}

	code, env = s.do(http.MethodPost, path, s.mod, map[string]int{"completeness": 5, "elegance": 5, "speed": 5})
	if code != http.StatusOK {
		t.Fatalf("score: %d %s", code, env.Message)
	}
	code, env = s.do(http.MethodPost, path, s.mod, map[string]int{"completeness": 10, "elegance": 10, "speed": 10})
	if code != http.StatusOK {
		t.Fatalf("rescore: %d %s", code, env.Message)
	}
	var scored struct {
		Total    *int `json:"total"`
		Reviewed bool `json:"reviewed"`
	}
	if err := json.Unmarshal(env.Data, &scored); err != nil || scored.Total == nil || *scored.Total != 30 || !scored.Reviewed {
		t.Fatalf("rescoring must overwrite, got %s (%v)", env.Data, err)
	}

	var last pubsub.WsMessage
	for i := 0; i < 2; i++ {
		select {
		case msg := <-events:
			if err := json.Unmarshal(msg, &last); err != nil {
				t.Fatalf("decode event: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatalf("expected two leaderboard events")
		}
	}
	var change pubsub.LeaderboardChanged
	if err := json.Unmarshal(last.Data, &change); err != nil {
		t.Fatalf("decode change: %v", err)
	}
	if last.Stream != "leaderboard" || change.Total != 30 || change.UserID != 42 || change.ScoredBy != 1 {
		t.Fatalf("unexpected event %+v %+v", last, change)
	}
	if !change.At.Equal(scoredAt) {
		t.Fatalf("event time should come from the ledger clock, got %v", change.At)
	}

	code, env = s.do(http.MethodGet, "/api/v1/tracks/cp/review-queue", s.mod, nil)
	if code != http.StatusOK || string(env.Data) != "[]" {
		t.Fatalf("queue should be empty, got %d %s", code, env.Data)
	}
}

func TestPublicationPlan(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/tracks/math/publication", s.mod, map[string]int64{"channel_id": 77})
	if code != http.StatusOK {
		t.Fatalf("plan: %d %s", code, env.Message)
	}
	var plan struct {
		Action string `json:"action"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(env.Data, &plan); err != nil || plan.Action != "append" || plan.Title != "Mathematics Leaderboard" {
		t.Fatalf("unexpected plan %s (%v)", env.Data, err)
	}

	code, env = s.do(http.MethodPost, "/api/v1/renderings", s.mod, map[string]interface{}{
		"channel_id": 77, "message_id": 5, "author_id": selfID, "title": "Mathematics Leaderboard",
	})
	if code != http.StatusOK {
		t.Fatalf("record: %d %s", code, env.Message)
	}

	code, env = s.do(http.MethodPost, "/api/v1/tracks/math/publication", s.mod, map[string]int64{"channel_id": 77})
	if code != http.StatusOK {
		t.Fatalf("plan: %d %s", code, env.Message)
	}
	var replace struct {
		Action string `json:"action"`
		Target struct {
			MessageID int64 `json:"message_id"`
		} `json:"target"`
	}
	if err := json.Unmarshal(env.Data, &replace); err != nil || replace.Action != "replace" || replace.Target.MessageID != 5 {
		t.Fatalf("unexpected plan %s (%v)", env.Data, err)
	}

	if code, _ := s.do(http.MethodPost, "/api/v1/tracks/math/publication", s.mod, map[string]int64{}); code != http.StatusBadRequest {
		t.Fatalf("missing channel: expected 400, got %d", code)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
