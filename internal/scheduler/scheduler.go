// Package scheduler owns one expiry countdown per open assignment.
//
// Deadlines are written to a durable Store before the in-process timer is
// started, so Recover can re-arm them after a restart. Cancellation is a
// hint: the handler must tolerate firing for an already resolved assignment.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"loadboard-dispatch/internal/apperr"
	"loadboard-dispatch/internal/logx"
)

// FireFunc handles an expired deadline. A non-nil error keeps the durable
// entry so the deadline is retried after the next Recover.
type FireFunc func(ctx context.Context, assignmentID string) error

const fireTimeout = 5 * time.Second

type armed struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler arms, cancels and fires expiry timers.
type Scheduler struct {
	store  Store
	logger logx.Logger
	gauge  prometheus.Gauge
	now    func() time.Time

	mu      sync.Mutex
	timers  map[string]armed
	gen     uint64
	closed  bool
	handler FireFunc
	wg      sync.WaitGroup
}

// New creates a Scheduler. gauge may be nil.
func New(store Store, logger logx.Logger, gauge prometheus.Gauge) *Scheduler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Scheduler{
		store:  store,
		logger: logger,
		gauge:  gauge,
		now:    time.Now,
		timers: make(map[string]armed),
	}
}

// SetHandler sets the function called when a deadline passes.
func (s *Scheduler) SetHandler(fn FireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
}

// Arm durably records deadline for assignmentID and starts its countdown.
// An error means the deadline is not guaranteed to fire.
func (s *Scheduler) Arm(ctx context.Context, assignmentID string, deadline time.Time) error {
	if s.isClosed() {
		return apperr.ErrSchedulerClosed
	}
	if err := s.store.Save(ctx, assignmentID, deadline); err != nil {
		return fmt.Errorf("arm %s: %w", assignmentID, err)
	}
	if !s.armLocal(assignmentID, deadline) {
		return apperr.ErrSchedulerClosed
	}
	return nil
}

// Cancel stops the countdown of assignmentID and forgets its deadline.
func (s *Scheduler) Cancel(ctx context.Context, assignmentID string) {
	s.mu.Lock()
	if a, ok := s.timers[assignmentID]; ok {
		a.timer.Stop()
		delete(s.timers, assignmentID)
		s.gaugeDec()
	}
	s.mu.Unlock()

	if err := s.store.Remove(ctx, assignmentID); err != nil {
		s.logger.Warn("expiry cancel: durable entry not removed",
			logx.String("assignment_id", assignmentID),
			logx.Err(err),
		)
	}
}

// Recover re-arms every durable deadline. Overdue ones fire right away.
func (s *Scheduler) Recover(ctx context.Context) (int, error) {
	entries, err := s.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("recover expiries: %w", err)
	}
	n := 0
	for _, e := range entries {
		if s.armLocal(e.AssignmentID, e.FireAt) {
			n++
		}
	}
	s.logger.Info("expiry timers recovered", logx.Int("count", n))
	return n, nil
}

// Armed returns the number of countdowns running in this process.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close stops all countdowns and waits for running handlers.
// Durable entries are kept for the next Recover.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for id, a := range s.timers {
		a.timer.Stop()
		delete(s.timers, id)
		s.gaugeDec()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Scheduler) armLocal(assignmentID string, deadline time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	if old, ok := s.timers[assignmentID]; ok {
		old.timer.Stop()
		s.gaugeDec()
	}

	delay := deadline.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	s.gen++
	gen := s.gen
	s.timers[assignmentID] = armed{
		timer: time.AfterFunc(delay, func() { s.fire(assignmentID, gen) }),
		gen:   gen,
	}
	s.gaugeInc()
	return true
}

func (s *Scheduler) fire(assignmentID string, gen uint64) {
	s.mu.Lock()
	a, ok := s.timers[assignmentID]
	if !ok || a.gen != gen || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.timers, assignmentID)
	s.gaugeDec()
	handler := s.handler
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	if handler == nil {
		s.logger.Warn("expiry fired without handler", logx.String("assignment_id", assignmentID))
		return
	}
	if err := handler(ctx, assignmentID); err != nil {
		s.logger.Error("expiry handler failed",
			logx.String("assignment_id", assignmentID),
			logx.Err(err),
		)
		return
	}
	if err := s.store.Remove(ctx, assignmentID); err != nil {
		s.logger.Warn("expiry fired: durable entry not removed",
			logx.String("assignment_id", assignmentID),
			logx.Err(err),
		)
	}
}

func (s *Scheduler) gaugeInc() {
	if s.gauge != nil {
		s.gauge.Inc()
	}
}

func (s *Scheduler) gaugeDec() {
	if s.gauge != nil {
		s.gauge.Dec()
	}
}
