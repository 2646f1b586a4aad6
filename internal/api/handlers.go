package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/resolutehq/resolute/internal/analytics"
	"github.com/resolutehq/resolute/internal/classifier"
	"github.com/resolutehq/resolute/internal/export"
	"github.com/resolutehq/resolute/internal/queue"
	"github.com/resolutehq/resolute/internal/session"
	"github.com/resolutehq/resolute/internal/store"
	"github.com/resolutehq/resolute/internal/types"
)

// maxBodyBytes bounds request bodies; restore envelopes are the largest.
const maxBodyBytes = 8 << 20

// Handler implements the API handlers
type Handler struct {
	session    *session.Session
	store      *store.GoalStore
	queue      *queue.Pending
	classifier classifier.Classifier
	apiKey     string
	version    string
}

// NewHandler creates a new Handler over the session and its collaborators.
func NewHandler(s *session.Session, gs *store.GoalStore, q *queue.Pending, c classifier.Classifier, apiKey, version string) *Handler {
	return &Handler{
		session:    s,
		store:      gs,
		queue:      q,
		classifier: c,
		apiKey:     apiKey,
		version:    version,
	}
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{
		Status:          "healthy",
		Version:         h.version,
		ClassifierModel: h.classifier.ModelName(),
		GoalCount:       h.store.Count(),
		Offline:         h.session.Offline(),
		PendingInputs:   h.session.PendingCount(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// Input handles POST /api/v1/input: one natural-language input through the
// classify→interpret pipeline (or into the offline queue).
func (h *Handler) Input(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	reply, err := h.session.HandleInput(r.Context(), req.Text)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// ListGoals handles GET /api/v1/goals
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// CreateGoal handles POST /api/v1/goals: a direct add bypassing the
// classifier.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string `json:"title"`
		Category string `json:"category"`
	}
	if err := decodeBody(r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if req.Title == "" {
		WriteProblem(w, r, http.StatusBadRequest, "Title is required")
		return
	}

	goal, err := h.store.CreateGoal(r.Context(), req.Title, types.NormalizeCategory(req.Category))
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

// GetGoal handles GET /api/v1/goals/{id}
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// RenameGoal handles PATCH /api/v1/goals/{id}
func (h *Handler) RenameGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if req.Title == "" {
		WriteProblem(w, r, http.StatusBadRequest, "Title is required")
		return
	}

	goal, err := h.store.RenameGoal(r.Context(), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// DeleteGoal handles DELETE /api/v1/goals/{id}
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.DeleteGoal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapError(w, r, err)
		return
	}
	if !deleted {
		WriteProblem(w, r, http.StatusNotFound, "Goal not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMilestone handles POST /api/v1/goals/{id}/milestones
func (h *Handler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if req.Text == "" {
		WriteProblem(w, r, http.StatusBadRequest, "Text is required")
		return
	}

	milestone, err := h.store.AddMilestone(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, milestone)
}

// ToggleMilestone handles POST /api/v1/goals/{id}/milestones/{milestoneID}/toggle
func (h *Handler) ToggleMilestone(w http.ResponseWriter, r *http.Request) {
	milestone, err := h.store.ToggleMilestone(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "milestoneID"))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, milestone)
}

// Report handles GET /api/v1/report. An empty store yields 204 No Content.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	report := analytics.Analyze(h.store.Snapshot(), time.Now().UTC())
	if report == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Export handles GET /api/v1/export?format=json|csv
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	goals := h.store.Snapshot()

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		data, err := export.JSON(goals, analytics.Analyze(goals, now), now)
		if err != nil {
			MapError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=resolutions-%s.json", now.Format("2006-01-02")))
		w.Write(data)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=resolutions-%s.csv", now.Format("2006-01-02")))
		w.Write(export.CSV(goals))
	default:
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Unknown export format %q", format))
	}
}

// Backup handles GET /api/v1/backup
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	data, err := export.Backup(h.store.Snapshot(), h.queue.Items(), now)
	if err != nil {
		MapError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=resolutions-backup-%s.json", now.Format("2006-01-02")))
	w.Write(data)
}

// Restore handles POST /api/v1/restore. An invalid envelope is rejected
// before any state is touched.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Failed to read request body")
		return
	}

	envelope, err := export.ParseBackup(data)
	if err != nil {
		MapError(w, r, err)
		return
	}

	if err := h.store.ReplaceAll(r.Context(), envelope.Resolutions); err != nil {
		MapError(w, r, err)
		return
	}
	if err := h.queue.ReplaceAll(r.Context(), envelope.PendingUpdates); err != nil {
		// Queue persistence failure is recoverable; in-memory state already
		// reflects the restore.
		slog.Warn("queue persistence failed during restore", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"restored_goals":   len(envelope.Resolutions),
		"restored_pending": len(envelope.PendingUpdates),
		"backup_created":   envelope.CreatedAt,
	})
}

// QueueStatus handles GET /api/v1/queue
func (h *Handler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.QueueStatus{
		Offline:      h.session.Offline(),
		PendingCount: h.queue.Len(),
		Pending:      h.queue.Items(),
	})
}

// SetConnectivity handles PUT /api/v1/connectivity, letting the presentation
// layer report host online/offline transitions. Going online drains the
// pending queue before the response is written.
func (h *Handler) SetConnectivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online bool `json:"online"`
	}
	if err := decodeBody(r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	h.session.SetOnline(r.Context(), req.Online)

	writeJSON(w, http.StatusOK, types.QueueStatus{
		Offline:      h.session.Offline(),
		PendingCount: h.queue.Len(),
		Pending:      h.queue.Items(),
	})
}

// decodeBody decodes a JSON request body with a size cap.
func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
