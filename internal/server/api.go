package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"trailhead/internal/gate"
	"trailhead/internal/goal"
	"trailhead/internal/httpmw"
	"trailhead/internal/model"
	"trailhead/internal/progress"
	"trailhead/internal/task"
	"trailhead/internal/telemetry"
)

// App holds what the handlers depend on.
type App struct {
	Goals       goal.Repo
	Tasks       task.Repo
	GoalService *goal.Service
	Advance     *gate.AdvanceService
	Events      *telemetry.MemoryRepo

	BootNow time.Time
}

type API struct {
	App *App
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// RegisterAPIRoutes wires every API endpoint onto the mux.
func RegisterAPIRoutes(mux *http.ServeMux, rr *RouteRegistry, app *App) {
	api := &API{App: app}
	tasks := task.NewHandler(app.Tasks)
	tasks.SetEvents(app.Events)

	Handle(mux, rr, "POST /api/goals", "create a goal with its task backlog", api.CreateGoal)
	Handle(mux, rr, "GET /api/goals", "list the caller's goals", api.ListGoals)
	Handle(mux, rr, "GET /api/goals/{id}", "get one goal", api.GetGoal)
	Handle(mux, rr, "GET /api/goals/{id}/tasks", "list visible tasks for a goal", api.ListGoalTasks)
	Handle(mux, rr, "GET /api/goals/{id}/tasks/active", "today's active task, if any", api.ActiveTasks)
	Handle(mux, rr, "POST /api/goals/{id}/advance", "activate the next queued task", api.AdvanceGoal)
	Handle(mux, rr, "GET /api/goals/{id}/summary", "past-N-days progress summary", api.GoalSummary)
	Handle(mux, rr, "GET /api/goals/{id}/calendar", "per-day stats for a month", api.GoalCalendar)
	Handle(mux, rr, "GET /api/tasks/{id}", "get one task", tasks.TaskByID)
	Handle(mux, rr, "PATCH /api/tasks/{id}", "change a task's status", tasks.PatchTask)
	Handle(mux, rr, "GET /api/stats", "telemetry stats", api.Stats)
	Handle(mux, rr, "GET /api/health", "liveness and uptime", api.Health)
	Handle(mux, rr, "GET /api/routes", "this listing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rr.List())
	})
}

func (a *API) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserFromContext(r.Context())

	var in struct {
		Title string          `json:"title"`
		Tasks []goal.TaskSpec `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}

	g, err := a.App.GoalService.CreateWithBacklog(r.Context(), userID, in.Title, in.Tasks)
	switch {
	case errors.Is(err, goal.ErrEmptyTitle),
		errors.Is(err, goal.ErrEmptyBacklog),
		errors.Is(err, goal.ErrInvalidSpec):
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (a *API) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserFromContext(r.Context())

	goals, err := a.App.Goals.List(r.Context(), userID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (a *API) GetGoal(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserFromContext(r.Context())
	id := model.GoalID(r.PathValue("id"))

	g, ok, err := a.App.Goals.Get(r.Context(), userID, id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *API) ListGoalTasks(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserFromContext(r.Context())
	id := model.GoalID(r.PathValue("id"))

	ts, err := a.App.Tasks.List(r.Context(), task.ListFilter{
		UserID: userID,
		GoalID: id,
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (a *API) ActiveTasks(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserFromContext(r.Context())
	id := model.GoalID(r.PathValue("id"))

	ts, err := a.App.Tasks.Active(r.Context(), userID, id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (a *API) AdvanceGoal(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserFromContext(r.Context())
	id := model.GoalID(r.PathValue("id"))

	ts, err := a.App.Advance.RequestNext(r.Context(), userID, id)
	switch {
	case errors.Is(err, gate.ErrGoalComplete):
		// Finishing the backlog is a success from the user's side.
		writeJSON(w, http.StatusOK, map[string]any{"goalComplete": true, "tasks": []model.Task{}})
		return
	case errors.Is(err, gate.ErrAlreadyActive):
		writeErr(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, gate.ErrNoQueuedTasks):
		writeErr(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, gate.ErrGoalNotFound):
		writeErr(w, http.StatusNotFound, "not found")
		return
	case errors.Is(err, gate.ErrValidation):
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goalComplete": false, "tasks": ts})
}

func (a *API) GoalSummary(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserFromContext(r.Context())
	id := model.GoalID(r.PathValue("id"))

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 90 {
			writeErr(w, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}
		days = n
	}

	if _, ok, err := a.App.Goals.Get(r.Context(), userID, id); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	} else if !ok {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	// The summary needs full history including the hidden backlog; only
	// aggregate figures leave this handler.
	ts, err := a.App.Tasks.List(r.Context(), task.ListFilter{
		UserID: userID, GoalID: id, IncludeQueued: true,
	})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := progress.PastNDaysSummary(ts, days, time.Now())
	streak := progress.Streak(summaries)
	completedTotal := 0
	for _, t := range ts {
		if t.Status == model.StatusCompleted {
			completedTotal++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":            summaries,
		"streak":          streak,
		"completed_total": completedTotal,
		"total_tasks":     len(ts),
		"badges":          progress.Badges(completedTotal, streak, len(ts)),
	})
}

func (a *API) GoalCalendar(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserFromContext(r.Context())
	id := model.GoalID(r.PathValue("id"))

	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1970 || n > 9999 {
			writeErr(w, http.StatusBadRequest, "bad year")
			return
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			writeErr(w, http.StatusBadRequest, "month must be 1-12")
			return
		}
		month = n
	}

	if _, ok, err := a.App.Goals.Get(r.Context(), userID, id); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	} else if !ok {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	ts, err := a.App.Tasks.List(r.Context(), task.ListFilter{
		UserID: userID, GoalID: id, IncludeQueued: true,
	})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, progress.MonthStats(ts, year, time.Month(month)))
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(a.App.BootNow).Round(time.Second).String(),
	})
}

func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	since := time.Now().AddDate(0, 0, -7)
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		since = parsed
	}
	writeJSON(w, http.StatusOK, telemetry.CalculateStats(a.App.Events.List(since), since))
}
