package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailhead/internal/clock"
	"trailhead/internal/gate"
	"trailhead/internal/goal"
	"trailhead/internal/httpmw"
	"trailhead/internal/model"
	"trailhead/internal/task"
	"trailhead/internal/telemetry"
)

func newTestServer(t *testing.T) (*httptest.Server, *task.MemoryRepo) {
	t.Helper()

	goals := goal.NewMemoryRepo()
	tasks := task.NewMemoryRepo()
	events := telemetry.NewMemoryRepo()
	g := &gate.Gate{
		Tasks:  tasks,
		Goals:  goals,
		Clock:  clock.NewFakeClock(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)),
		Events: events,
	}
	app := &App{
		Goals:       goals,
		Tasks:       tasks,
		GoalService: &goal.Service{Goals: goals, Tasks: tasks, Gate: g, Events: events},
		Advance:     &gate.AdvanceService{Gate: g},
		Events:      events,
		BootNow:     time.Now(),
	}

	mux := http.NewServeMux()
	rr := &RouteRegistry{}
	RegisterAPIRoutes(mux, rr, app)

	srv := httptest.NewServer(httpmw.Chain(mux, httpmw.WithUser))
	t.Cleanup(srv.Close)
	return srv, tasks
}

func doJSON(t *testing.T, method, url, user string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func createGoal(t *testing.T, srv *httptest.Server, user string, n int) model.Goal {
	t.Helper()

	specs := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		specs = append(specs, map[string]any{"title": fmt.Sprintf("step %d", i), "phase": 1})
	}
	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/api/goals", user, map[string]any{
		"title": "learn go",
		"tasks": specs,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var g model.Goal
	require.NoError(t, json.Unmarshal(raw, &g))
	return g
}

type advanceResponse struct {
	GoalComplete bool         `json:"goalComplete"`
	Tasks        []model.Task `json:"tasks"`
}

func TestAPI_GoalLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	g := createGoal(t, srv, "u1", 2)

	// creation already activated step 1
	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/goals/"+string(g.ID)+"/tasks", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var visible []model.Task
	require.NoError(t, json.Unmarshal(raw, &visible))
	require.Len(t, visible, 1)
	assert.Equal(t, model.StatusPending, visible[0].Status)
	assert.Equal(t, 1, visible[0].SequenceOrder)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/goals/"+string(g.ID)+"/advance", "u1", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodPatch, srv.URL+"/api/tasks/"+string(visible[0].ID), "u1",
		map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/api/goals/"+string(g.ID)+"/advance", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var adv advanceResponse
	require.NoError(t, json.Unmarshal(raw, &adv))
	assert.False(t, adv.GoalComplete)
	require.Len(t, adv.Tasks, 1)
	assert.Equal(t, 2, adv.Tasks[0].SequenceOrder)

	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/api/tasks/"+string(adv.Tasks[0].ID), "u1",
		map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/api/goals/"+string(g.ID)+"/advance", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &adv))
	assert.True(t, adv.GoalComplete)
	assert.Empty(t, adv.Tasks)

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/api/goals/"+string(g.ID), "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.Goal
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, model.GoalCompleted, got.Status)
}

func TestAPI_CreateGoal_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/goals", "u1", map[string]any{
		"title": "",
		"tasks": []map[string]any{{"title": "step"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/goals", "u1", map[string]any{
		"title": "learn go",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_QueuedTaskIsNotFound(t *testing.T) {
	srv, tasks := newTestServer(t)
	g := createGoal(t, srv, "u1", 3)

	all, err := tasks.List(context.Background(), task.ListFilter{
		UserID: "u1", GoalID: g.ID, IncludeQueued: true,
	})
	require.NoError(t, err)
	require.Len(t, all, 3)

	for _, tk := range all {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/tasks/"+string(tk.ID), "u1", nil)
		if tk.Status == model.StatusQueued {
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		} else {
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
	}
}

func TestAPI_PatchTask_RejectsGateOwnedStatuses(t *testing.T) {
	srv, tasks := newTestServer(t)
	g := createGoal(t, srv, "u1", 2)

	active, err := tasks.Active(context.Background(), "u1", g.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)

	for _, status := range []string{"pending", "queued"} {
		resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/tasks/"+string(active[0].ID), "u1",
			map[string]any{"status": status})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	// completed tasks are terminal
	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/tasks/"+string(active[0].ID), "u1",
		map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/api/tasks/"+string(active[0].ID), "u1",
		map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_UserScoping(t *testing.T) {
	srv, _ := newTestServer(t)
	g := createGoal(t, srv, "u1", 2)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/goals/"+string(g.ID), "u2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/goals/"+string(g.ID)+"/advance", "u2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// no header at all falls back to the default identity
	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/goals", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var goals []model.Goal
	require.NoError(t, json.Unmarshal(raw, &goals))
	assert.Empty(t, goals)
}

func TestAPI_GoalSummary(t *testing.T) {
	srv, tasks := newTestServer(t)
	g := createGoal(t, srv, "u1", 3)

	active, err := tasks.Active(context.Background(), "u1", g.ID)
	require.NoError(t, err)
	_, err = tasks.UpdateStatus(context.Background(), "u1", active[0].ID, model.StatusCompleted, time.Now())
	require.NoError(t, err)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/goals/"+string(g.ID)+"/summary?days=7", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var out struct {
		Days           []map[string]any `json:"days"`
		Streak         int              `json:"streak"`
		CompletedTotal int              `json:"completed_total"`
		TotalTasks     int              `json:"total_tasks"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Len(t, out.Days, 7)
	assert.Equal(t, 1, out.Streak)
	assert.Equal(t, 1, out.CompletedTotal)
	assert.Equal(t, 3, out.TotalTasks)

	for _, bad := range []string{"0", "91", "x"} {
		resp, _ := doJSON(t, http.MethodGet,
			srv.URL+"/api/goals/"+string(g.ID)+"/summary?days="+bad, "u1", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestAPI_GoalCalendar(t *testing.T) {
	srv, _ := newTestServer(t)
	g := createGoal(t, srv, "u1", 1)

	resp, raw := doJSON(t, http.MethodGet,
		srv.URL+"/api/goals/"+string(g.ID)+"/calendar?year=2026&month=2", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var grid map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &grid))
	assert.Len(t, grid, 28)

	resp, _ = doJSON(t, http.MethodGet,
		srv.URL+"/api/goals/"+string(g.ID)+"/calendar?month=13", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "ok", out["status"])
	assert.NotEmpty(t, out["uptime"])
}

func TestAPI_RouteListing(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/api/routes", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var routes []RouteDoc
	require.NoError(t, json.Unmarshal(raw, &routes))
	require.NotEmpty(t, routes)

	patterns := make(map[string]bool)
	for _, r := range routes {
		patterns[r.Method+" "+r.Pattern] = true
	}
	assert.True(t, patterns["POST /api/goals"])
	assert.True(t, patterns["POST /api/goals/{id}/advance"])
	assert.True(t, patterns["PATCH /api/tasks/{id}"])
}
