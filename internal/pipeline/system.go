package pipeline

import (
	"log"
	"sync"

	"skindecal/internal/config"
	"skindecal/internal/decal"
)

// System owns the decal generation subsystem: the polygon template pool, the
// clip worker pool and the launch scheduler. Create one per scene and tear it
// down with Shutdown; Tick it once per frame from the goroutine owning
// render resources.
type System struct {
	pool     *decal.Pool
	workers  *WorkerPool
	sched    *Scheduler
	uploader decal.Uploader

	mu        sync.Mutex
	pipelines map[uint64]*Pipeline
}

// NewSystem creates the subsystem. uploader publishes finalized meshes and
// may be nil when no render backend is attached (tests, headless tools).
func NewSystem(uploader decal.Uploader) *System {
	sys := &System{
		pool:      decal.NewPool(),
		workers:   NewWorkerPool(config.GetClipWorkers(), config.GetClipQueueSize()),
		uploader:  uploader,
		pipelines: make(map[uint64]*Pipeline),
	}
	sys.sched = NewScheduler(sys.launch)
	return sys
}

// Pool exposes the polygon template pool.
func (sys *System) Pool() *decal.Pool { return sys.pool }

// RequestLaunch queues a decal launch for the projector. Re-requesting a
// projector whose pipeline already ran (or is running) is a misuse: logged
// and ignored.
func (sys *System) RequestLaunch(p *decal.Projector, onComplete func([]*decal.Mesh)) {
	sys.mu.Lock()
	if existing, ok := sys.pipelines[p.ID()]; ok {
		sys.mu.Unlock()
		state := StateNotLaunched
		if existing != nil {
			state = existing.State()
		}
		log.Printf("pipeline: projector %d already requested (state %s), request ignored", p.ID(), state)
		return
	}
	sys.pipelines[p.ID()] = nil // reserve until the scheduler launches it
	sys.mu.Unlock()

	sys.sched.Enqueue(Request{Projector: p, OnComplete: onComplete})
}

func (sys *System) launch(req Request) *Pipeline {
	pl := NewPipeline(req.Projector, sys.pool, sys.workers, sys.uploader, req.OnComplete)
	pl.Launch()
	sys.mu.Lock()
	sys.pipelines[req.Projector.ID()] = pl
	sys.mu.Unlock()
	return pl
}

// PipelineState reports a projector's pipeline state; NotLaunched when no
// pipeline has started for it yet.
func (sys *System) PipelineState(p *decal.Projector) State {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	pl := sys.pipelines[p.ID()]
	if pl == nil {
		return StateNotLaunched
	}
	return pl.State()
}

// Tick advances the scheduler and the current pipeline by one frame.
func (sys *System) Tick() {
	sys.sched.Tick()
}

// Shutdown stops the clip workers. In-flight pipelines stop making progress.
func (sys *System) Shutdown() {
	sys.workers.Shutdown()
}
