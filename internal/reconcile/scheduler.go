// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

import (
	"context"
	"sync"
	"time"
)

// Scheduler owns every timer and background task of a reconciler run.
// Stop cancels the run context, stops pending one-shot timers and waits for
// running tasks to return.
type Scheduler struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	timers  map[*time.Timer]struct{}
	wg      sync.WaitGroup
}

// NewScheduler returns a stopped scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[*time.Timer]struct{})}
}

// Start derives the run context from parent.
func (s *Scheduler) Start(parent context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(parent)
	s.running = true
	return nil
}

// Running reports whether Start was called without a matching Stop.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.ctx.Err() == nil
}

// Every runs fn now and then once per interval until Stop.
func (s *Scheduler) Every(interval time.Duration, fn func(context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		fn(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
	return true
}

// After runs fn once after delay unless Stop comes first.
func (s *Scheduler) After(delay time.Duration, fn func(context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	ctx := s.ctx
	s.wg.Add(1)

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	})
	s.timers[t] = struct{}{}
	return true
}

// Go runs fn in the background under the run context.
func (s *Scheduler) Go(fn func(context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
	return true
}

// Pending returns the number of one-shot timers that have not fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels everything scheduled and blocks until in-flight tasks return.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	for t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, t)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
