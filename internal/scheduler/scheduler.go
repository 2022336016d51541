package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/platform/logging"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
	"github.com/robfig/cron/v3"
)

const (
	DefaultSchedule   = "@every 5m"
	defaultRunTimeout = 2 * time.Minute
)

type Ingester interface {
	IngestAll(ctx context.Context, req usecase.IngestRequest) (usecase.IngestionReport, error)
}

type Config struct {
	// Schedule is a standard five-field cron expression or a descriptor
	// such as "@every 5m". Times are UTC.
	Schedule   string
	RunTimeout time.Duration
	RunOnStart bool
}

// Scheduler refreshes fixtures from every enabled provider on a cron
// schedule. A run still in progress when the next tick fires makes that
// tick a no-op; the startup run shares the same guard.
type Scheduler struct {
	cron       *cron.Cron
	job        cron.Job
	startup    sync.WaitGroup
	ingester   Ingester
	logger     *logging.Logger
	runTimeout time.Duration
	runOnStart bool
	baseCtx    context.Context
	cancel     context.CancelFunc
	runs       atomic.Int64
}

func New(ingester Ingester, cfg Config, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With("component", "scheduler")

	schedule := strings.TrimSpace(cfg.Schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}
	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}

	cronLog := cronLogger{logger: logger}
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLog),
		),
		ingester:   ingester,
		logger:     logger,
		runTimeout: runTimeout,
		runOnStart: cfg.RunOnStart,
		baseCtx:    baseCtx,
		cancel:     cancel,
	}

	s.job = cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)).
		Then(cron.FuncJob(func() { s.RunOnce(s.baseCtx) }))
	if _, err := s.cron.AddJob(schedule, s.job); err != nil {
		cancel()
		return nil, fmt.Errorf("parse ingest schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("ingest scheduler started", "entries", len(s.cron.Entries()))
	if s.runOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			s.job.Run()
		}()
	}
}

// Stop halts new runs, cancels the one in flight (scheduled or startup)
// and waits for it to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.startup.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs one scheduled ingestion of all providers.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	run := s.runs.Add(1)
	started := time.Now()
	report, err := s.ingester.IngestAll(ctx, usecase.IngestRequest{})
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled ingestion failed", "run", run, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "scheduled ingestion finished",
		"run", run,
		"added", report.Added,
		"skipped", report.Skipped,
		"dropped", report.Dropped,
		"failed", report.Failed,
		"errors", len(report.Errors),
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

// Runs is the number of runs started so far.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// cronLogger routes robfig/cron's own logging into the service logger.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
