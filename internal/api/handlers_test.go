package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/resolutehq/resolute/internal/classifier"
	"github.com/resolutehq/resolute/internal/queue"
	"github.com/resolutehq/resolute/internal/session"
	"github.com/resolutehq/resolute/internal/storage"
	"github.com/resolutehq/resolute/internal/store"
	"github.com/resolutehq/resolute/internal/types"
)

const testAPIKey = "test-api-key"

// fakeClassifier answers with canned intents keyed by input text.
type fakeClassifier struct {
	intents map[string]*types.Intent
	err     error
}

func (f *fakeClassifier) Classify(ctx context.Context, goals []types.Goal, text string) (*types.Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if intent, ok := f.intents[text]; ok {
		return intent, nil
	}
	return &types.Intent{Action: types.ActionMotivate, Data: types.IntentData{Message: "ok"}}, nil
}

func (f *fakeClassifier) ModelName() string { return "fake-model" }

type testEnv struct {
	router http.Handler
	store  *store.GoalStore
	queue  *queue.Pending
	sess   *session.Session
}

func newTestEnv(t *testing.T, c classifier.Classifier) *testEnv {
	t.Helper()
	if c == nil {
		c = &fakeClassifier{}
	}
	mem := storage.NewMemory()
	gs := store.New(mem)
	q := queue.New(mem)
	sess := session.New(gs, c, q)
	h := NewHandler(sess, gs, q, c, testAPIKey, "test")
	return &testEnv{router: NewRouter(h), store: gs, queue: q, sess: sess}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth_NoAuthRequired(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	health := decode[types.HealthResponse](t, rec)
	if health.Status != "healthy" || health.ClassifierModel != "fake-model" {
		t.Errorf("unexpected health: %+v", health)
	}
}

func TestAuth_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong key", "Bearer wrong-key"},
		{"malformed scheme", "Basic " + testAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/goals", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type: got %q", ct)
			}
			problem := decode[Problem](t, rec)
			if problem.Status != http.StatusUnauthorized {
				t.Errorf("problem: %+v", problem)
			}
		})
	}
}

func TestInput_AppliesIntent(t *testing.T) {
	fake := &fakeClassifier{intents: map[string]*types.Intent{
		"start meditating": {
			Action: types.ActionAdd,
			Data:   types.IntentData{Title: "Meditate daily", Category: "health", Message: "Wonderful!"},
		},
	}}
	env := newTestEnv(t, fake)

	rec := env.request(t, http.MethodPost, "/api/v1/input", map[string]string{"text": "start meditating"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200\n%s", rec.Code, rec.Body)
	}

	reply := decode[types.InputReply](t, rec)
	if reply.Message != "Wonderful!" || reply.Queued {
		t.Errorf("unexpected reply: %+v", reply)
	}
	if env.store.Count() != 1 {
		t.Errorf("store count: got %d, want 1", env.store.Count())
	}
}

func TestInput_EmptyText(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.request(t, http.MethodPost, "/api/v1/input", map[string]string{"text": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestInput_ClassifierDownQueues(t *testing.T) {
	env := newTestEnv(t, &fakeClassifier{err: classifier.ErrUnavailable})

	rec := env.request(t, http.MethodPost, "/api/v1/input", map[string]string{"text": "do a thing"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	reply := decode[types.InputReply](t, rec)
	if !reply.Queued || reply.PendingCount != 1 {
		t.Errorf("unexpected reply: %+v", reply)
	}
	if !env.sess.Offline() {
		t.Error("session not offline after transport failure")
	}
}

func TestGoalCRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.request(t, http.MethodPost, "/api/v1/goals", map[string]string{"title": "Read more", "category": "learning"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d\n%s", rec.Code, rec.Body)
	}
	created := decode[types.Goal](t, rec)
	if created.ID == "" || created.Category != types.CategoryLearning {
		t.Fatalf("unexpected goal: %+v", created)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/goals/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status: got %d", rec.Code)
	}

	rec = env.request(t, http.MethodPatch, "/api/v1/goals/"+created.ID, map[string]string{"title": "Read 24 books"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename status: got %d", rec.Code)
	}
	renamed := decode[types.Goal](t, rec)
	if renamed.Title != "Read 24 books" {
		t.Errorf("Title: got %q", renamed.Title)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/goals", nil)
	goals := decode[[]types.Goal](t, rec)
	if len(goals) != 1 {
		t.Fatalf("list: got %d goals", len(goals))
	}

	rec = env.request(t, http.MethodDelete, "/api/v1/goals/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status: got %d", rec.Code)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/goals/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status: got %d", rec.Code)
	}
}

func TestCreateGoal_RequiresTitle(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.request(t, http.MethodPost, "/api/v1/goals", map[string]string{"category": "health"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestMilestones(t *testing.T) {
	env := newTestEnv(t, nil)
	goal, _ := env.store.CreateGoal(context.Background(), "goal", types.CategoryPersonal)

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/goals/%s/milestones", goal.ID), map[string]string{"text": "step one"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status: got %d\n%s", rec.Code, rec.Body)
	}
	milestone := decode[types.Milestone](t, rec)

	rec = env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/goals/%s/milestones/%s/toggle", goal.ID, milestone.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status: got %d", rec.Code)
	}
	toggled := decode[types.Milestone](t, rec)
	if !toggled.Completed {
		t.Error("milestone not completed after toggle")
	}

	rec = env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/goals/%s/milestones/missing/toggle", goal.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("toggle missing status: got %d", rec.Code)
	}
}

func TestReport_EmptyStoreIsNoContent(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.request(t, http.MethodGet, "/api/v1/report", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}
}

func TestReport_WithGoals(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.CreateGoal(context.Background(), "goal", types.CategoryHealth)

	rec := env.request(t, http.MethodGet, "/api/v1/report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	report := decode[types.Report](t, rec)
	if report.TotalGoals != 1 {
		t.Errorf("TotalGoals: got %d, want 1", report.TotalGoals)
	}
}

func TestExport_CSV(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.CreateGoal(context.Background(), "goal", types.CategoryHealth)

	rec := env.request(t, http.MethodGet, "/api/v1/export?format=csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "Title,Category,Progress") {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.request(t, http.MethodGet, "/api/v1/export?format=xml", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.store.CreateGoal(ctx, "kept goal", types.CategoryFinance)

	rec := env.request(t, http.MethodGet, "/api/v1/backup", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("backup status: got %d", rec.Code)
	}
	backup := rec.Body.String()

	// Wipe and restore into a fresh environment.
	fresh := newTestEnv(t, nil)
	rec = fresh.request(t, http.MethodPost, "/api/v1/restore", backup)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore status: got %d\n%s", rec.Code, rec.Body)
	}

	if fresh.store.Count() != 1 {
		t.Errorf("store count after restore: got %d, want 1", fresh.store.Count())
	}
	goals := fresh.store.Snapshot()
	if goals[0].Title != "kept goal" {
		t.Errorf("unexpected goal: %+v", goals[0])
	}
}

func TestRestore_InvalidEnvelopeLeavesStateUntouched(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.CreateGoal(context.Background(), "precious", types.CategoryPersonal)

	rec := env.request(t, http.MethodPost, "/api/v1/restore", `{"resolutions":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400\n%s", rec.Code, rec.Body)
	}

	if env.store.Count() != 1 {
		t.Errorf("store mutated by rejected restore: %d goals", env.store.Count())
	}
}

func TestQueueStatus(t *testing.T) {
	env := newTestEnv(t, &fakeClassifier{err: classifier.ErrUnavailable})
	env.request(t, http.MethodPost, "/api/v1/input", map[string]string{"text": "queued input"})

	rec := env.request(t, http.MethodGet, "/api/v1/queue", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	status := decode[types.QueueStatus](t, rec)
	if !status.Offline || status.PendingCount != 1 || len(status.Pending) != 1 {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestSetConnectivity_DrainsQueue(t *testing.T) {
	fake := &fakeClassifier{intents: map[string]*types.Intent{
		"queued input": {
			Action: types.ActionAdd,
			Data:   types.IntentData{Title: "Recovered goal", Message: "back online"},
		},
	}}
	env := newTestEnv(t, fake)

	env.request(t, http.MethodPut, "/api/v1/connectivity", map[string]bool{"online": false})
	env.request(t, http.MethodPost, "/api/v1/input", map[string]string{"text": "queued input"})

	rec := env.request(t, http.MethodPut, "/api/v1/connectivity", map[string]bool{"online": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	status := decode[types.QueueStatus](t, rec)
	if status.Offline || status.PendingCount != 0 {
		t.Errorf("unexpected status: %+v", status)
	}
	if env.store.Count() != 1 {
		t.Errorf("queued input not applied: %d goals", env.store.Count())
	}
}
