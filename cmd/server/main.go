package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"trailhead/internal/clock"
	"trailhead/internal/config"
	"trailhead/internal/gate"
	"trailhead/internal/goal"
	"trailhead/internal/httpmw"
	"trailhead/internal/scheduler"
	"trailhead/internal/server"
	"trailhead/internal/task"
	"trailhead/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "trailhead.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg = config.FromEnv(cfg)

	logger := log.New(os.Stdout, "", 0)
	ctx := context.Background()

	goals, tasks, err := buildRepos(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	events := telemetry.NewMemoryRepo()
	clk := clock.RealClock{}

	g := &gate.Gate{Tasks: tasks, Goals: goals, Clock: clk, Events: events}
	app := &server.App{
		Goals:       goals,
		Tasks:       tasks,
		GoalService: &goal.Service{Goals: goals, Tasks: tasks, Gate: g, Events: events},
		Advance:     &gate.AdvanceService{Gate: g},
		Events:      events,
		BootNow:     clk.Now(),
	}

	if cfg.Scheduler.Enabled {
		sched := &scheduler.Scheduler{
			Gate:   g,
			Goals:  goals,
			Clock:  clk,
			Events: events,
			Logger: logger,
		}
		sched.Start()
		defer sched.Stop()
	}

	mux := http.NewServeMux()
	rr := &server.RouteRegistry{}
	server.RegisterAPIRoutes(mux, rr, app)

	handler := httpmw.Chain(mux,
		httpmw.WithRequestID,
		httpmw.WithUser,
		httpmw.WithLogging(logger),
		httpmw.WithRecover(logger),
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("trailhead listening on %s\n", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// buildRepos picks the storage backend: Postgres when a database URL is
// configured, the JSON file stores when a data dir is set, in-memory
// otherwise.
func buildRepos(ctx context.Context, cfg config.Config) (goal.Repo, task.Repo, error) {
	if cfg.Storage.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		goals := goal.NewPgRepo(pool)
		tasks := task.NewPgRepo(pool)
		if err := goals.EnsureTable(ctx); err != nil {
			return nil, nil, err
		}
		if err := tasks.EnsureTable(ctx); err != nil {
			return nil, nil, err
		}
		return goals, tasks, nil
	}

	if cfg.Storage.DataDir != "" {
		goals, err := goal.NewFileRepo(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		tasks, err := task.NewFileRepo(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return goals, tasks, nil
	}

	return goal.NewMemoryRepo(), task.NewMemoryRepo(), nil
}
