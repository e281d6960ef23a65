package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopbench/shopbench/internal/api/dto"
	"github.com/shopbench/shopbench/internal/config"
	ierr "github.com/shopbench/shopbench/internal/errors"
	"github.com/shopbench/shopbench/internal/logger"
	"github.com/shopbench/shopbench/internal/types"
	"go.uber.org/fx"
)

// BillingRunner is the part of the billing service the scheduler drives
type BillingRunner interface {
	ProcessMonthlyBilling(ctx context.Context) (*dto.BillingRunResponse, error)
}

// BillingScheduler triggers the monthly billing run on a daily cron schedule.
// The run itself is gated on the configured billing day, so firing daily is safe.
type BillingScheduler struct {
	cron     *cron.Cron
	runner   BillingRunner
	logger   *logger.Logger
	schedule string
	timeout  time.Duration

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

// NewBillingScheduler validates the schedule and registers the billing job.
// Runs never overlap; a tick that fires while a run is in progress is skipped.
func NewBillingScheduler(cfg *config.Configuration, runner BillingRunner, log *logger.Logger) (*BillingScheduler, error) {
	s := &BillingScheduler{
		runner:   runner,
		logger:   log,
		schedule: cfg.Billing.Schedule,
		timeout:  time.Hour,
	}

	cronLogger := &cronLogger{logger: log}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	id, err := s.cron.AddFunc(s.schedule, func() {
		_, _ = s.Run(context.Background())
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Invalid billing schedule %q", s.schedule).
			Mark(ierr.ErrConfiguration)
	}
	s.entryID = id

	return s, nil
}

// Run executes one billing pass with a request id of its own
func (s *BillingScheduler) Run(ctx context.Context) (*dto.BillingRunResponse, error) {
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Infow("billing schedule fired", "request_id", types.GetRequestID(ctx))

	result, err := s.runner.ProcessMonthlyBilling(ctx)
	if err != nil {
		s.logger.Errorw("scheduled monthly billing failed",
			"request_id", types.GetRequestID(ctx),
			"error", err)
		return nil, err
	}

	if !result.Skipped {
		s.logger.Infow("scheduled monthly billing finished",
			"processed", result.Processed,
			"created", result.Created,
			"already_billed", result.AlreadyBilled,
			"failed", result.Failed)
	}
	return result, nil
}

// Start begins firing the schedule
func (s *BillingScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
	s.logger.Infow("billing scheduler started",
		"schedule", s.schedule,
		"next_run", s.NextRun())
}

// Stop halts the schedule and waits for a running pass to finish or ctx to expire
func (s *BillingScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("billing scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns when the job fires next; zero before Start
func (s *BillingScheduler) NextRun() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// RegisterWithLifecycle starts the scheduler with the application when enabled
func (s *BillingScheduler) RegisterWithLifecycle(lc fx.Lifecycle, cfg *config.Configuration) {
	if !cfg.Billing.SchedulerEnabled {
		s.logger.Info("billing scheduler disabled, monthly billing runs only via the cron endpoint")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
}

// cronLogger adapts our logger to cron.Logger
type cronLogger struct {
	logger *logger.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
