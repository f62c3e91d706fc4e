// Package sched implements a cooperative round-robin scheduler.
package sched

import (
	"context"
	"sync"
	"time"
)

// RoundRobin calls each of its steps in turn, once per tick. Steps
// must return promptly; they share a single goroutine.
type RoundRobin struct {
	mu    sync.Mutex
	steps []func()
}

// Schedule adds a step to be called every tick.
func (r *RoundRobin) Schedule(step func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

// Tick calls every step once, in the order they were scheduled.
func (r *RoundRobin) Tick() {
	r.mu.Lock()
	steps := r.steps
	r.mu.Unlock()
	for _, s := range steps {
		s()
	}
}

// Run ticks every interval until ctx is done.
func (r *RoundRobin) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.Tick()
		}
	}
}
