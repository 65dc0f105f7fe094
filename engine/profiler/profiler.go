package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// Totals accumulates scene submission counts over the profiler's lifetime.
type Totals struct {
	Frames         int
	Draws          int
	CulledNodes    int
	CulledModels   int
	CulledSurfaces int
	CulledSkins    int
	// Busy is the summed duration of the frames passed to Tick.
	Busy time.Duration
}

// Profiler tracks frame rate, submission counts and memory statistics for performance
// monitoring. Outputs stats to the logger at a configurable interval.
type Profiler struct {
	label          string
	frameCount     int
	drawCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	totals         Totals
	now            func() time.Time
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: optional ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
		now:            time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with the frame's submission statistics and the
// time the frame took. Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, draws per second, heap usage, allocation rate, GC count/pause times, total memory.
//
// Parameters:
//   - stats: the statistics returned by the frame's submission
//   - busy: the time spent simulating and submitting the frame
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats scene.FrameStats, busy time.Duration) bool {
	p.frameCount++
	p.drawCount += stats.Draws
	p.totals.Frames++
	p.totals.Draws += stats.Draws
	p.totals.CulledNodes += stats.CulledNodes
	p.totals.CulledModels += stats.CulledModels
	p.totals.CulledSurfaces += stats.CulledSurfaces
	p.totals.CulledSkins += stats.CulledSkins
	p.totals.Busy += busy

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, Sys is the process footprint obtained from the OS.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.Logger().Info("frame stats",
		"label", p.label,
		"fps", float64(p.frameCount)/elapsed.Seconds(),
		"draws_per_frame", float64(p.drawCount)/float64(p.frameCount),
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	)

	p.frameCount = 0
	p.drawCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Totals returns the counts accumulated since the profiler was created.
func (p *Profiler) Totals() Totals {
	return p.totals
}
