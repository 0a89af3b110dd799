package config

import (
	"runtime"
	"sync"
)

// DecalSettings holds runtime decal generation configuration.
type DecalSettings struct {
	mu sync.RWMutex

	// Distance meshes are pushed along the decal normal to avoid z-fighting
	// with the receiving surface.
	surfaceOffset float32

	// Cutoff for the broad-phase backface test: polygons whose face normal
	// dots below this against the decal normal are rejected unless the
	// projector projects onto backsides.
	backfaceCutoff float32

	clipWorkers   int
	clipQueueSize int
}

var globalDecalSettings = &DecalSettings{
	surfaceOffset:  0.005,
	backfaceCutoff: 0.0,
	clipWorkers:    max(runtime.NumCPU()/2, 1),
	clipQueueSize:  64,
}

// GetSurfaceOffset returns the decal z-fighting offset.
func GetSurfaceOffset() float32 {
	globalDecalSettings.mu.RLock()
	defer globalDecalSettings.mu.RUnlock()
	return globalDecalSettings.surfaceOffset
}

// SetSurfaceOffset sets the decal z-fighting offset.
func SetSurfaceOffset(offset float32) {
	globalDecalSettings.mu.Lock()
	defer globalDecalSettings.mu.Unlock()

	// Clamp to sane values
	if offset < 0 {
		offset = 0
	}
	if offset > 0.1 {
		offset = 0.1
	}

	globalDecalSettings.surfaceOffset = offset
}

// GetBackfaceCutoff returns the broad-phase backface rejection cutoff.
func GetBackfaceCutoff() float32 {
	globalDecalSettings.mu.RLock()
	defer globalDecalSettings.mu.RUnlock()
	return globalDecalSettings.backfaceCutoff
}

// SetBackfaceCutoff sets the broad-phase backface rejection cutoff.
func SetBackfaceCutoff(cutoff float32) {
	globalDecalSettings.mu.Lock()
	defer globalDecalSettings.mu.Unlock()

	if cutoff < -1 {
		cutoff = -1
	}
	if cutoff > 1 {
		cutoff = 1
	}

	globalDecalSettings.backfaceCutoff = cutoff
}

// GetClipWorkers returns the clip worker goroutine count.
func GetClipWorkers() int {
	globalDecalSettings.mu.RLock()
	defer globalDecalSettings.mu.RUnlock()
	return globalDecalSettings.clipWorkers
}

// SetClipWorkers sets the clip worker goroutine count.
func SetClipWorkers(n int) {
	globalDecalSettings.mu.Lock()
	defer globalDecalSettings.mu.Unlock()

	if n < 1 {
		n = 1
	}
	if n > runtime.NumCPU() {
		n = runtime.NumCPU()
	}

	globalDecalSettings.clipWorkers = n
}

// GetClipQueueSize returns the clip job queue capacity.
func GetClipQueueSize() int {
	globalDecalSettings.mu.RLock()
	defer globalDecalSettings.mu.RUnlock()
	return globalDecalSettings.clipQueueSize
}
