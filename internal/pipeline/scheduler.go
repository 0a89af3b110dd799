package pipeline

import (
	"sync"

	"skindecal/internal/decal"
)

// Request is one queued launch: a projector identity plus an optional
// one-shot completion callback.
type Request struct {
	Projector  *decal.Projector
	OnComplete func([]*decal.Mesh)
}

// Scheduler serializes launch requests: strict FIFO, at most one pipeline
// current system-wide. A stalled current pipeline blocks the queue until it
// reaches a terminal state; requests whose projector died while queued are
// silently dropped at dequeue time.
type Scheduler struct {
	mu      sync.Mutex
	queue   []Request
	current *Pipeline

	launch func(Request) *Pipeline
}

// NewScheduler creates a scheduler. launch builds and launches the pipeline
// for a dequeued request.
func NewScheduler(launch func(Request) *Pipeline) *Scheduler {
	return &Scheduler{launch: launch}
}

// Enqueue appends a launch request in arrival order.
func (s *Scheduler) Enqueue(req Request) {
	s.mu.Lock()
	s.queue = append(s.queue, req)
	s.mu.Unlock()
}

// Current returns the active pipeline, or nil.
func (s *Scheduler) Current() *Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// QueueLength returns the number of waiting requests.
func (s *Scheduler) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Tick drives the current pipeline one step, then, if the slot is free (no
// current, its projector vanished, or it reached a terminal state), dequeues
// the next live request and launches it.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current != nil {
		current.Tick()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Projector().Alive() && !s.current.State().Terminal() {
		return
	}
	s.current = nil
	for len(s.queue) > 0 {
		req := s.queue[0]
		s.queue = s.queue[1:]
		if !req.Projector.Alive() {
			// Dead while queued: drop without notice.
			continue
		}
		s.current = s.launch(req)
		break
	}
}
