// Package jobs schedules the batch passes. Each job runs on its own
// interval, at most one instance at a time across every replica.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/courselens/internal/metrics"
	"github.com/JaimeStill/courselens/pkg/database"
	"github.com/JaimeStill/courselens/pkg/lifecycle"
)

var (
	ErrAlreadyRunning = errors.New("job already running")
	ErrUnknownJob     = errors.New("unknown job")
)

// Func performs one pass and returns its report.
type Func func(ctx context.Context) (any, error)

// Job is a named batch pass. A zero Interval disables scheduled runs; the
// job can still be triggered manually.
type Job struct {
	Name     string
	Interval time.Duration
	Run      Func
}

// State is a snapshot of a job's run history.
type State struct {
	Name         string     `json:"name"`
	Interval     string     `json:"interval"`
	Running      bool       `json:"running"`
	Runs         int        `json:"runs"`
	LastStarted  *time.Time `json:"last_started,omitempty"`
	LastFinished *time.Time `json:"last_finished,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	LastReport   any        `json:"last_report,omitempty"`
}

type entry struct {
	job   Job
	mu    sync.Mutex
	state State
}

// Scheduler runs registered jobs on tickers bound to the lifecycle context.
type Scheduler struct {
	lc     *lifecycle.Coordinator
	locker Locker
	ready  lifecycle.ReadinessChecker
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// NewScheduler creates a scheduler. ready gates runs on store availability
// and may be nil.
func NewScheduler(
	lc *lifecycle.Coordinator,
	locker Locker,
	ready lifecycle.ReadinessChecker,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		lc:      lc,
		locker:  locker,
		ready:   ready,
		logger:  logger.With("system", "jobs"),
		entries: map[string]*entry{},
	}
}

// Register adds a job. Registering a name twice replaces the earlier job.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[job.Name]; !ok {
		s.order = append(s.order, job.Name)
	}
	s.entries[job.Name] = &entry{
		job:   job,
		state: State{Name: job.Name, Interval: job.Interval.String()},
	}
}

// Start launches a ticker worker per scheduled job. With runOnStart each
// job also runs once immediately.
func (s *Scheduler) Start(runOnStart bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range s.order {
		e := s.entries[name]
		if e.job.Interval <= 0 {
			continue
		}
		s.lc.Go(func(ctx context.Context) {
			s.loop(ctx, e, runOnStart)
		})
	}
	s.logger.Info("scheduler started", "jobs", len(s.order))
}

func (s *Scheduler) loop(ctx context.Context, e *entry, runOnStart bool) {
	if runOnStart {
		s.runScheduled(ctx, e)
	}

	ticker := time.NewTicker(e.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runScheduled(ctx, e)
		}
	}
}

func (s *Scheduler) runScheduled(ctx context.Context, e *entry) {
	if _, err := s.run(ctx, e); err != nil && !errors.Is(err, ErrAlreadyRunning) {
		s.logger.Error("scheduled job failed", "job", e.job.Name, "error", err)
	}
}

// RunNow runs a job synchronously and returns its report.
func (s *Scheduler) RunNow(ctx context.Context, name string) (any, error) {
	e, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, e)
}

// Trigger starts a job in the background. It fails fast when the job is
// unknown or already running in this process.
func (s *Scheduler) Trigger(name string) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	running := e.state.Running
	e.mu.Unlock()
	if running {
		return ErrAlreadyRunning
	}

	s.lc.Go(func(ctx context.Context) {
		s.runScheduled(ctx, e)
	})
	return nil
}

// States returns a snapshot of every job in registration order.
func (s *Scheduler) States() []State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]State, 0, len(s.order))
	for _, name := range s.order {
		e := s.entries[name]
		e.mu.Lock()
		out = append(out, e.state)
		e.mu.Unlock()
	}
	return out
}

func (s *Scheduler) lookup(name string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return e, nil
}

func (s *Scheduler) run(ctx context.Context, e *entry) (any, error) {
	name := e.job.Name

	if s.ready != nil && !s.ready.Ready() {
		metrics.RecordJobSkipped(name)
		return nil, database.ErrNotReady
	}

	e.mu.Lock()
	if e.state.Running {
		e.mu.Unlock()
		metrics.RecordJobSkipped(name)
		return nil, ErrAlreadyRunning
	}
	e.state.Running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.state.Running = false
		e.mu.Unlock()
	}()

	unlock, ok, err := s.locker.TryLock(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("acquire lock for %s: %w", name, err)
	}
	if !ok {
		s.logger.Info("job held by another instance, skipping", "job", name)
		metrics.RecordJobSkipped(name)
		return nil, ErrAlreadyRunning
	}
	defer unlock()

	start := time.Now()
	e.mu.Lock()
	e.state.LastStarted = &start
	e.mu.Unlock()

	s.logger.Info("job started", "job", name)
	report, err := e.job.Run(ctx)
	finished := time.Now()
	metrics.RecordJobRun(name, finished.Sub(start), err)

	e.mu.Lock()
	e.state.Runs++
	e.state.LastFinished = &finished
	e.state.LastReport = report
	e.state.LastError = ""
	if err != nil {
		e.state.LastError = err.Error()
	}
	e.mu.Unlock()

	if err != nil {
		return report, fmt.Errorf("job %s: %w", name, err)
	}
	s.logger.Info("job finished", "job", name, "duration", finished.Sub(start))
	return report, nil
}
