package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"skindecal/internal/decal"
	"skindecal/internal/geom"
	"skindecal/internal/skin"
)

type fakeUploader struct {
	mu     sync.Mutex
	meshes []*decal.Mesh
}

func (f *fakeUploader) Upload(m *decal.Mesh) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meshes = append(f.meshes, m)
	return nil
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.meshes)
}

func attr(x, y, z float32) geom.VertexAttr {
	return geom.VertexAttr{
		Position: mgl32.Vec3{x, y, z},
		Normal:   mgl32.Vec3{0, 0, 1},
		Bones:    [geom.MaxBoneInfluences]geom.SkinWeight{{Bone: 0, Weight: 1}},
	}
}

func groundSurface(t *testing.T) *decal.Surface {
	t.Helper()
	s, err := decal.NewSurface([]geom.VertexAttr{
		attr(0, 0, 0), attr(1, 0, 0), attr(1, 1, 0),
		attr(0, 0, 0), attr(1, 1, 0), attr(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	return s
}

func downProjector(s ...*decal.Surface) *decal.Projector {
	p := decal.NewProjector(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.QuatIdent(), 1, 1, 1)
	p.Surfaces = s
	return p
}

// runTicks drives the system like a frame loop until done reports true.
func runTicks(t *testing.T, sys *System, done func() bool) {
	t.Helper()
	for i := 0; i < 2000; i++ {
		sys.Tick()
		if done() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("system did not settle within tick budget")
}

func TestLaunchCompletesAndUploads(t *testing.T) {
	up := &fakeUploader{}
	sys := NewSystem(up)
	defer sys.Shutdown()

	surf := groundSurface(t)
	proj := downProjector(surf)

	var got []*decal.Mesh
	completed := false
	sys.RequestLaunch(proj, func(meshes []*decal.Mesh) {
		got = meshes
		completed = true
	})

	runTicks(t, sys, func() bool { return completed })

	if st := sys.PipelineState(proj); st != StateCompleted {
		t.Fatalf("pipeline state %s, want Completed", st)
	}
	if up.count() != 1 {
		t.Fatalf("uploaded %d meshes, want 1", up.count())
	}
	if len(got) != 1 || got[0].TriangleCount() == 0 {
		t.Fatalf("completion callback got %d meshes", len(got))
	}
}

// Scenario: destroying the projector before the worker result is consumed
// cancels the pipeline and never runs mesh assembly.
func TestDestroyProjectorMidFlightCancels(t *testing.T) {
	up := &fakeUploader{}
	sys := NewSystem(up)
	defer sys.Shutdown()

	surf := groundSurface(t)
	proj := downProjector(surf)

	fired := false
	sys.RequestLaunch(proj, func([]*decal.Mesh) { fired = true })

	// First tick launches the pipeline, second submits the clip job.
	sys.Tick()
	sys.Tick()
	proj.Destroy()

	runTicks(t, sys, func() bool { return sys.PipelineState(proj).Terminal() })

	if st := sys.PipelineState(proj); st != StateCanceled {
		t.Fatalf("pipeline state %s, want Canceled", st)
	}
	if up.count() != 0 {
		t.Fatalf("canceled pipeline published %d meshes", up.count())
	}
	if fired {
		t.Fatalf("completion callback fired for canceled pipeline")
	}
}

// Scenario: requests complete strictly in arrival order; a later request's
// callback never fires before an earlier pipeline reaches a terminal state.
func TestSchedulerStrictFIFO(t *testing.T) {
	sys := NewSystem(nil)
	defer sys.Shutdown()

	// A gets a far heavier surface than B, so B's computation would win a
	// race if the scheduler allowed one.
	var heavy []geom.VertexAttr
	for x := 0; x < 40; x++ {
		for y := 0; y < 40; y++ {
			fx, fy := float32(x)*0.025, float32(y)*0.025
			heavy = append(heavy,
				attr(fx, fy, 0), attr(fx+0.025, fy, 0), attr(fx+0.025, fy+0.025, 0),
				attr(fx, fy, 0), attr(fx+0.025, fy+0.025, 0), attr(fx, fy+0.025, 0),
			)
		}
	}
	surfA, err := decal.NewSurface(heavy)
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	surfB := groundSurface(t)

	projA := downProjector(surfA)
	projB := downProjector(surfB)

	var order []string
	sys.RequestLaunch(projA, func([]*decal.Mesh) { order = append(order, "A") })
	sys.RequestLaunch(projB, func([]*decal.Mesh) { order = append(order, "B") })

	runTicks(t, sys, func() bool { return len(order) == 2 })

	if order[0] != "A" || order[1] != "B" {
		t.Fatalf("completion order %v, want [A B]", order)
	}
}

func TestSchedulerDropsDeadQueuedRequest(t *testing.T) {
	sys := NewSystem(nil)
	defer sys.Shutdown()

	dead := downProjector(groundSurface(t))
	dead.Destroy()
	live := downProjector(groundSurface(t))

	deadFired := false
	liveFired := false
	sys.RequestLaunch(dead, func([]*decal.Mesh) { deadFired = true })
	sys.RequestLaunch(live, func([]*decal.Mesh) { liveFired = true })

	runTicks(t, sys, func() bool { return liveFired })

	if deadFired {
		t.Fatalf("dead projector's callback fired")
	}
	if st := sys.PipelineState(dead); st != StateNotLaunched {
		t.Fatalf("dead projector reached state %s", st)
	}
}

func TestDeadSurfaceCancelsPipeline(t *testing.T) {
	up := &fakeUploader{}
	sys := NewSystem(up)
	defer sys.Shutdown()

	first := groundSurface(t)
	second := groundSurface(t)
	second.Destroy()
	proj := downProjector(first, second)

	fired := false
	sys.RequestLaunch(proj, func([]*decal.Mesh) { fired = true })

	runTicks(t, sys, func() bool { return sys.PipelineState(proj).Terminal() })

	if st := sys.PipelineState(proj); st != StateCanceled {
		t.Fatalf("pipeline state %s, want Canceled", st)
	}
	if fired {
		t.Fatalf("completion callback fired despite cancellation")
	}
	// The first surface may have published before the dead one was reached,
	// but never the dead one.
	if up.count() > 1 {
		t.Fatalf("published %d meshes, at most 1 expected", up.count())
	}
}

func TestSkinnedPoseSnapshotBakesIntoMesh(t *testing.T) {
	sys := NewSystem(nil)
	defer sys.Shutdown()

	surf := groundSurface(t)
	surf.PoseFunc = func() skin.Palette {
		pal := skin.Identity(1)
		pal[0] = mgl32.Translate3D(0, 0, 0.2)
		return pal
	}
	proj := downProjector(surf)

	var got []*decal.Mesh
	sys.RequestLaunch(proj, func(meshes []*decal.Mesh) { got = meshes })
	runTicks(t, sys, func() bool { return got != nil })

	if len(got) != 1 || len(got[0].Vertices) == 0 {
		t.Fatalf("no mesh from skinned surface")
	}
	for i, v := range got[0].Vertices {
		// Posed plane sits at z=0.2 plus the z-fight offset.
		if z := v.Position.Z(); z < 0.2 || z > 0.21 {
			t.Fatalf("vertex %d z=%v, want posed height ~0.2", i, z)
		}
	}
}

func TestDoubleLaunchIsIgnored(t *testing.T) {
	surf := groundSurface(t)
	proj := downProjector(surf)
	pool := decal.NewPool()
	workers := NewWorkerPool(1, 4)
	defer workers.Shutdown()

	pl := NewPipeline(proj, pool, workers, nil, nil)
	pl.Launch()
	if st := pl.State(); st != StateLaunching {
		t.Fatalf("state after launch %s", st)
	}
	pl.Launch() // misuse: logged, no effect
	if st := pl.State(); st != StateLaunching {
		t.Fatalf("double launch changed state to %s", st)
	}
}

func TestRepeatRequestIgnored(t *testing.T) {
	sys := NewSystem(nil)
	defer sys.Shutdown()

	proj := downProjector(groundSurface(t))
	calls := 0
	sys.RequestLaunch(proj, func([]*decal.Mesh) { calls++ })
	sys.RequestLaunch(proj, func([]*decal.Mesh) { calls += 100 })

	runTicks(t, sys, func() bool { return sys.PipelineState(proj).Terminal() })

	if calls != 1 {
		t.Fatalf("callback accounting %d, want exactly the first request's", calls)
	}
}
