package pipeline

import (
	"log"
	"sync/atomic"

	"skindecal/internal/decal"
	"skindecal/internal/profiling"
	"skindecal/internal/skin"
)

// State is a projector pipeline's lifecycle phase.
type State int32

const (
	StateNotLaunched State = iota
	StateLaunching
	StateCompleted
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateNotLaunched:
		return "NotLaunched"
	case StateLaunching:
		return "Launching"
	case StateCompleted:
		return "Completed"
	case StateCanceled:
		return "Canceled"
	}
	return "Unknown"
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCanceled
}

// Pipeline drives one projector's decal generation across frames: for each
// receiving surface it snapshots the skin pose, bakes the pooled polygon
// copies, hands the clip work to a worker, polls once per frame for the
// result, then assembles and finalizes on the ticking goroutine.
type Pipeline struct {
	projector *decal.Projector
	pool      *decal.Pool
	workers   *WorkerPool
	uploader  decal.Uploader

	state atomic.Int32

	projection decal.Projection
	assembler  *decal.Assembler
	resultCh   chan ClipResult

	surfaceIdx int
	awaiting   bool

	// onComplete fires on the ticking goroutine after the last surface is
	// finalized. Never invoked for a canceled pipeline.
	onComplete func([]*decal.Mesh)
}

// NewPipeline creates a not-yet-launched pipeline for a projector.
func NewPipeline(p *decal.Projector, pool *decal.Pool, workers *WorkerPool, up decal.Uploader, onComplete func([]*decal.Mesh)) *Pipeline {
	return &Pipeline{
		projector:  p,
		pool:       pool,
		workers:    workers,
		uploader:   up,
		resultCh:   make(chan ClipResult, 1),
		onComplete: onComplete,
	}
}

// Projector returns the pipeline's projector.
func (pl *Pipeline) Projector() *decal.Projector { return pl.projector }

// State returns the current pipeline state.
func (pl *Pipeline) State() State { return State(pl.state.Load()) }

// Launch moves the pipeline from NotLaunched to Launching. Launching twice
// (or after a terminal state) is a misuse: it is logged and has no effect.
func (pl *Pipeline) Launch() {
	if !pl.state.CompareAndSwap(int32(StateNotLaunched), int32(StateLaunching)) {
		log.Printf("pipeline: projector %d launch ignored in state %s", pl.projector.ID(), pl.State())
		return
	}
	pl.projection = decal.NewProjection(pl.projector)
	pl.assembler = decal.NewAssembler(pl.projector.Material)
}

// cancel transitions to Canceled; no further surface work runs and no
// partial mesh is published for the in-flight surface.
func (pl *Pipeline) cancel(reason string) {
	pl.state.Store(int32(StateCanceled))
	log.Printf("pipeline: projector %d canceled: %s", pl.projector.ID(), reason)
}

// Tick advances the pipeline by at most one step. It must be called once per
// frame from the orchestrating goroutine; mesh finalize runs here, never on
// the worker.
func (pl *Pipeline) Tick() {
	if pl.State() != StateLaunching {
		return
	}
	defer profiling.Track("pipeline.Tick")()

	if !pl.projector.Alive() {
		pl.cancel("projector destroyed")
		return
	}

	if pl.awaiting {
		// Poll once per frame boundary; no busy waiting inside a frame.
		select {
		case res := <-pl.resultCh:
			pl.awaiting = false
			pl.finishSurface(res)
		default:
		}
		return
	}

	if pl.surfaceIdx >= len(pl.projector.Surfaces) {
		pl.complete()
		return
	}
	pl.startSurface(pl.projector.Surfaces[pl.surfaceIdx])
}

// startSurface snapshots the pose, bakes the pooled polygons and hands the
// clip work to a worker.
func (pl *Pipeline) startSurface(s *decal.Surface) {
	if !s.Alive() {
		pl.cancel("receiving surface destroyed")
		return
	}

	templates := pl.pool.PolygonsFor(s)
	pose := s.SnapshotPose()
	baked := skin.BakePolygons(templates, pose)

	job := ClipJob{
		SurfaceID:  s.ID(),
		Polygons:   baked,
		Projection: pl.projection,
		ResultChan: pl.resultCh,
	}
	if !pl.workers.SubmitJob(job) {
		// Queue full this frame; retry next tick.
		return
	}
	pl.awaiting = true
}

// finishSurface assembles and finalizes one surface's survivors on the
// ticking goroutine.
func (pl *Pipeline) finishSurface(res ClipResult) {
	s := pl.projector.Surfaces[pl.surfaceIdx]
	if !s.Alive() {
		pl.cancel("receiving surface destroyed")
		return
	}

	pl.assembler.AppendPolygons(res.SurfaceID, res.Survivors, &pl.projection)
	if mesh := pl.assembler.MeshFor(res.SurfaceID); mesh != nil {
		if err := mesh.Finalize(pl.uploader); err != nil {
			log.Printf("pipeline: projector %d surface %d finalize: %v", pl.projector.ID(), res.SurfaceID, err)
		}
	}
	pl.surfaceIdx++

	if pl.surfaceIdx >= len(pl.projector.Surfaces) {
		pl.complete()
	}
}

func (pl *Pipeline) complete() {
	pl.state.Store(int32(StateCompleted))
	if pl.onComplete != nil {
		pl.onComplete(pl.assembler.Meshes())
	}
}

// Meshes returns the assembled meshes so far; complete only once the
// pipeline reports Completed.
func (pl *Pipeline) Meshes() []*decal.Mesh {
	if pl.assembler == nil {
		return nil
	}
	return pl.assembler.Meshes()
}
