package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"trailhead/internal/httpmw"
	"trailhead/internal/model"
	"trailhead/internal/telemetry"
)

type Handler struct {
	repo   Repo
	events telemetry.Recorder // optional
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) SetEvents(events telemetry.Recorder) {
	h.events = events
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// GET /api/tasks/{id}
//
// Queued tasks 404 here even though they exist: the backlog is invisible
// until the gate assigns it.
func (h *Handler) TaskByID(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserFromContext(r.Context())
	id := model.TaskID(r.PathValue("id"))

	t, err := h.repo.Get(r.Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !t.IsVisible() {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// PATCH /api/tasks/{id}  {"status": "in_progress" | "completed" | "cancelled"}
func (h *Handler) PatchTask(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserFromContext(r.Context())
	id := model.TaskID(r.PathValue("id"))

	var in struct {
		Status model.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	if in.Status == "" {
		writeErr(w, http.StatusBadRequest, `missing field "status"`)
		return
	}
	// Activation is the gate's job, not a direct status write.
	if in.Status == model.StatusPending || in.Status == model.StatusQueued {
		writeErr(w, http.StatusBadRequest, "status not settable directly")
		return
	}

	cur, err := h.repo.Get(r.Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !cur.IsVisible() {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	t, err := h.repo.UpdateStatus(r.Context(), userID, id, in.Status, time.Now())
	if errors.Is(err, ErrInvalidTransition) {
		writeErr(w, http.StatusConflict, err.Error())
		return
	}
	if errors.Is(err, ErrNotFound) {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	if in.Status == model.StatusCompleted && h.events != nil {
		h.events.Record(telemetry.EventTaskCompleted, telemetry.Metadata{
			"goal_id": string(t.GoalID),
			"task_id": string(t.ID),
		})
	}
	writeJSON(w, http.StatusOK, t)
}
