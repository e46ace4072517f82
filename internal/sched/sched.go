// Package sched runs named jobs on cron schedules.
package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "riverside/internal/log"
)

// Job is one unit of periodic work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner. Runs of the same job never overlap; a tick
// that fires while the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	names map[cron.EntryID]string
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		ctx:    ctx,
		cancel: cancel,
		names:  make(map[cron.EntryID]string),
	}
}

// Validate checks a standard five-field cron expression.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron %q: %w", spec, err)
	}
	return nil
}

// Add registers job under name on spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if err := Validate(spec); err != nil {
		return err
	}

	var running sync.Mutex
	id, err := s.cron.AddFunc(spec, func() {
		if !running.TryLock() {
			appLog.Warn("job still running, skipping tick", "job", name)
			return
		}
		defer running.Unlock()

		start := time.Now()
		if err := job(s.ctx); err != nil {
			appLog.Error("job failed", err, "job", name, "took", time.Since(start).Round(time.Millisecond).String())
			return
		}
		appLog.Debug("job done", "job", name, "took", time.Since(start).Round(time.Millisecond).String())
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	s.mu.Lock()
	s.names[id] = name
	s.mu.Unlock()
	appLog.Info("job scheduled", "job", name, "cron", spec)
	return nil
}

// Next reports when each job runs next, by name.
func (s *Scheduler) Next() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Time, len(s.names))
	for _, e := range s.cron.Entries() {
		out[s.names[e.ID]] = e.Next
	}
	return out
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		appLog.Warn("scheduler stop timed out")
	}
}
