package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-shading/engine/logger"
)

// FrameStats is the snapshot produced each time the profiler's update interval elapses.
type FrameStats struct {
	// FPS is the number of frames per second over the last interval.
	FPS float64
	// FrameTime is the average wall time per frame over the last interval.
	FrameTime time.Duration
	// HeapMB is the live heap size in megabytes.
	HeapMB float64
	// AllocRateMB is the heap allocation rate in megabytes per second.
	AllocRateMB float64
	// GCCount is the cumulative number of garbage collections.
	GCCount uint32
	// LastPauseUs and MaxPauseUs are GC pause times in microseconds.
	LastPauseUs, MaxPauseUs uint64
	// SysMB is the total memory obtained from the OS in megabytes.
	SysMB float64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the engine logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	readMem        bool
	now            func() time.Time
	last           FrameStats
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
		readMem:        true,
		now:            time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, frame time, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	stats := FrameStats{
		FPS:       float64(p.frameCount) / elapsed.Seconds(),
		FrameTime: elapsed / time.Duration(p.frameCount),
	}

	if p.readMem {
		runtime.ReadMemStats(&p.memStats)
		// Alloc: Bytes of allocated heap objects (live memory)
		// Sys: Total bytes of memory obtained from the OS (actual process footprint)
		stats.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
		stats.SysMB = float64(p.memStats.Sys) / 1024 / 1024

		allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
		stats.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

		gcCount := p.memStats.NumGC
		if gcCount > 0 {
			// PauseNs is a circular buffer of last 256 GC pauses
			stats.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

			startIdx := p.lastGCCount
			if gcCount-startIdx > 256 {
				startIdx = gcCount - 256
			}
			for i := startIdx; i < gcCount; i++ {
				pause := p.memStats.PauseNs[i%256] / 1000
				if pause > stats.MaxPauseUs {
					stats.MaxPauseUs = pause
				}
			}
		}
		stats.GCCount = gcCount
		p.lastGCCount = gcCount
		p.lastTotalAlloc = p.memStats.TotalAlloc
	}

	logger.Logger().Info("profiler",
		"fps", stats.FPS,
		"frame_ms", float64(stats.FrameTime.Microseconds())/1000,
		"heap_mb", stats.HeapMB,
		"alloc_mb_s", stats.AllocRateMB,
		"gc", stats.GCCount,
		"gc_last_us", stats.LastPauseUs,
		"gc_max_us", stats.MaxPauseUs,
		"sys_mb", stats.SysMB,
	)

	p.last = stats
	p.frameCount = 0
	p.lastTime = currentTime
	return true
}

// Last returns the statistics computed by the most recent logging Tick.
func (p *Profiler) Last() FrameStats {
	return p.last
}
