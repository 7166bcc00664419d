package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"trailhead/internal/clock"
	"trailhead/internal/gate"
	"trailhead/internal/goal"
	"trailhead/internal/telemetry"
)

// Scheduler advances every active goal once per UTC calendar day. It is
// an explicit object with a Start/Stop lifecycle; tests skip the timer
// and call RunOnce directly with a fake clock on the gate.
type Scheduler struct {
	Gate   *gate.Gate
	Goals  goal.Repo
	Clock  clock.Clock
	Events telemetry.Recorder // optional
	Logger *log.Logger

	stop chan struct{}
	done chan struct{}
}

// RunResult summarizes one daily run.
type RunResult struct {
	Day       string `json:"day"`
	Goals     int    `json:"goals"`
	Activated int    `json:"activated"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

func (s *Scheduler) Start() {
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for {
			timer := time.NewTimer(untilNextUTCMidnight(s.Clock.Now()))
			select {
			case <-s.stop:
				timer.Stop()
				return
			case <-timer.C:
				s.RunOnce(context.Background())
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}

// RunOnce advances every active goal in lenient mode. A failing goal is
// logged and skipped; the run always visits every goal. Re-running on the
// same day is safe because an already-active goal is a no-op.
func (s *Scheduler) RunOnce(ctx context.Context) RunResult {
	now := s.Clock.Now().UTC()
	res := RunResult{Day: now.Format("2006-01-02")}

	goals, err := s.Goals.ListActive(ctx)
	if err != nil {
		s.logJSON(map[string]any{
			"msg":   "daily_advance_list_failed",
			"day":   res.Day,
			"error": err.Error(),
		})
		return res
	}
	res.Goals = len(goals)

	for _, g := range goals {
		t, err := s.Gate.TryAdvance(ctx, g.UserID, g.ID, gate.Lenient)
		switch {
		case errors.Is(err, gate.ErrGoalComplete):
			res.Completed++
		case err != nil:
			res.Failed++
			s.logJSON(map[string]any{
				"msg":     "daily_advance_goal_failed",
				"day":     res.Day,
				"goal_id": string(g.ID),
				"error":   err.Error(),
			})
		case t != nil:
			res.Activated++
		}
	}

	if s.Events != nil {
		s.Events.Record(telemetry.EventDayTick, telemetry.Metadata{
			"day":       res.Day,
			"goals":     res.Goals,
			"activated": res.Activated,
		})
	}
	s.logJSON(map[string]any{
		"msg":       "daily_advance_done",
		"day":       res.Day,
		"goals":     res.Goals,
		"activated": res.Activated,
		"completed": res.Completed,
		"failed":    res.Failed,
	})
	return res
}

func (s *Scheduler) logJSON(fields map[string]any) {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(fields)
	if err != nil {
		logger.Printf("scheduler: %v", fields["msg"])
		return
	}
	logger.Print(string(b))
}

func untilNextUTCMidnight(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(now)
}
