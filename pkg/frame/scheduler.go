package frame

import (
	"context"
	stderrors "errors"
	"sync"
)

// Task is a deferred write. It runs once, after the pass that scheduled it.
type Task func(ctx context.Context) error

// Scheduler is a deferred task queue keyed by scale identity.
//
// Tasks deferred under the same key coalesce: the last registration wins,
// but the key keeps the position of its first registration. The zero value
// is ready to use.
type Scheduler struct {
	mu    sync.Mutex
	order []string
	tasks map[string]Task
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Defer queues task under key, replacing any task already queued there.
func (s *Scheduler) Defer(key string, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks == nil {
		s.tasks = make(map[string]Task)
	}
	if _, ok := s.tasks[key]; !ok {
		s.order = append(s.order, key)
	}
	s.tasks[key] = task
}

// Pending returns the queued keys in registration order.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Flush runs every queued task exactly once and empties the queue. All
// tasks run even if some fail; their errors are joined. Tasks deferred while
// flushing are kept for the next Flush.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	order, tasks := s.order, s.tasks
	s.order, s.tasks = nil, nil
	s.mu.Unlock()

	var errs []error
	for _, key := range order {
		if err := tasks[key](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
