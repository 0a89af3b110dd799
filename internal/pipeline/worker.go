package pipeline

import (
	"context"
	"sync"

	"skindecal/internal/decal"
	"skindecal/internal/geom"
	"skindecal/internal/profiling"
)

// ClipJob asks a worker to run broad phase plus the six-plane narrow phase
// over one surface's baked polygon copies. The job owns its polygons; nothing
// else may touch them until the result arrives.
type ClipJob struct {
	SurfaceID  uint64
	Polygons   []*geom.ConvexPolygon
	Projection decal.Projection
	// Result channel - will be sent the result when done
	ResultChan chan ClipResult
}

// ClipResult carries the surviving polygons of one surface back to the
// orchestrating goroutine.
type ClipResult struct {
	SurfaceID uint64
	Survivors []*geom.ConvexPolygon
}

// WorkerPool manages the goroutines running clip jobs.
type WorkerPool struct {
	jobQueue chan ClipJob
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWorkerPool creates a clip worker pool.
func NewWorkerPool(workers int, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		jobQueue: make(chan ClipJob, queueSize),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := range workers {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	return pool
}

// SubmitJob submits a clip job to the pool.
// Returns true if the job was submitted, false if the queue is full.
func (p *WorkerPool) SubmitJob(job ClipJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false // Queue is full
	}
}

// worker is the goroutine processing clip jobs.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			stop := profiling.Track("pipeline.ClipJob")
			survivors := decal.ClipSurvivors(job.Polygons, &job.Projection)
			stop()

			result := ClipResult{
				SurfaceID: job.SurfaceID,
				Survivors: survivors,
			}

			select {
			case job.ResultChan <- result:
			case <-p.ctx.Done():
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown gracefully stops the worker pool.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// QueueLength returns the current number of queued jobs.
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}
