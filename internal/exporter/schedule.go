package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler re-runs an export on a cron cadence. One export runs
// immediately on Start; after that the loop sleeps until each firing.
type Scheduler struct {
	exp    *Exporter
	opts   Options
	spec   string
	parser cron.Parser
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// running skips a firing while the previous export still works.
	running atomic.Bool
}

// NewScheduler wires a scheduler around exp. spec is a standard
// five-field cron expression; it is parsed on Start.
func NewScheduler(exp *Exporter, opts Options, spec string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		exp:    exp,
		opts:   opts,
		spec:   spec,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger: logger,
	}
}

// Start validates the cron expression and launches the export loop.
func (s *Scheduler) Start(ctx context.Context) error {
	schedule, err := s.parser.Parse(s.spec)
	if err != nil {
		return fmt.Errorf("parse cron expression %q: %w", s.spec, err)
	}

	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(loopCtx, schedule)
	s.logger.Info("export scheduler started", slog.String("cron", s.spec))
	return nil
}

func (s *Scheduler) loop(ctx context.Context, schedule cron.Schedule) {
	defer close(s.done)

	// Initial export right away, so a fresh start never waits a full
	// period for its first output.
	s.run(ctx)

	for {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("skipping export, previous run still in progress")
		return
	}
	defer s.running.Store(false)

	report, err := s.exp.Export(ctx, s.opts)
	if err != nil {
		s.logger.Error("scheduled export failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("scheduled export finished",
		slog.Int("files", report.Files),
		slog.Int("failures", len(report.Failures)),
	)
}

// Next reports when the schedule would fire after from.
func (s *Scheduler) Next(from time.Time) (time.Time, error) {
	schedule, err := s.parser.Parse(s.spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", s.spec, err)
	}
	return schedule.Next(from), nil
}

// Stop cancels the loop and waits for it to exit. Safe to call without
// a prior Start and safe to call twice.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.logger.Info("export scheduler stopped")
}
