package profiler

import (
	"fmt"
	"log"
	"runtime"
	"time"
)

// FrameStats tracks frame rate, frame time and memory statistics. It is owned by the caller
// and advanced by an explicit Tick per frame; nothing is global.
type FrameStats struct {
	updateInterval time.Duration
	reportMemory   bool
	logf           func(format string, args ...any)

	frameCount  int
	totalFrames uint64
	lastTime    time.Time

	fps       float64
	frameTime time.Duration

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// FrameStatsOption is a functional option for configuring FrameStats during construction.
type FrameStatsOption func(*FrameStats)

// WithUpdateInterval sets how often stats are recomputed and logged. Defaults to 1 second.
//
// Parameters:
//   - d: the interval
//
// Returns:
//   - FrameStatsOption: a function that applies the interval option
func WithUpdateInterval(d time.Duration) FrameStatsOption {
	return func(s *FrameStats) {
		s.updateInterval = d
	}
}

// WithMemoryStats adds heap, allocation rate and GC pause figures to each report.
//
// Parameters:
//   - enabled: true to read runtime memory stats on every report
//
// Returns:
//   - FrameStatsOption: a function that applies the memory option
func WithMemoryStats(enabled bool) FrameStatsOption {
	return func(s *FrameStats) {
		s.reportMemory = enabled
	}
}

// WithLogger replaces log.Printf as the report sink. A nil sink disables logging.
//
// Parameters:
//   - logf: the printf-style sink
//
// Returns:
//   - FrameStatsOption: a function that applies the logger option
func WithLogger(logf func(format string, args ...any)) FrameStatsOption {
	return func(s *FrameStats) {
		s.logf = logf
	}
}

// NewFrameStats creates FrameStats whose first interval starts at now.
//
// Parameters:
//   - now: the start of the first interval
//   - options: a variadic list of FrameStatsOption functions
//
// Returns:
//   - *FrameStats: the stats
func NewFrameStats(now time.Time, options ...FrameStatsOption) *FrameStats {
	s := &FrameStats{
		updateInterval: time.Second,
		logf:           log.Printf,
		lastTime:       now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Tick counts one frame ending at now. When the update interval has elapsed, FPS and mean
// frame time are recomputed over the interval and reported.
//
// Parameters:
//   - now: the time the frame ended
//
// Returns:
//   - bool: true if stats were recomputed this tick
func (s *FrameStats) Tick(now time.Time) bool {
	s.frameCount++
	s.totalFrames++
	elapsed := now.Sub(s.lastTime)
	if elapsed < s.updateInterval || elapsed <= 0 {
		return false
	}

	s.fps = float64(s.frameCount) / elapsed.Seconds()
	s.frameTime = elapsed / time.Duration(s.frameCount)

	if s.logf != nil {
		if s.reportMemory {
			s.logf("[Profiler] %s | %s", s, s.readMemory(elapsed))
		} else {
			s.logf("[Profiler] %s", s)
		}
	}

	s.frameCount = 0
	s.lastTime = now
	return true
}

// FPS returns the frame rate of the last completed interval.
//
// Returns:
//   - float64: frames per second
func (s *FrameStats) FPS() float64 {
	return s.fps
}

// FrameTime returns the mean frame time of the last completed interval.
//
// Returns:
//   - time.Duration: the mean frame time
func (s *FrameStats) FrameTime() time.Duration {
	return s.frameTime
}

// TotalFrames returns the number of ticks since creation.
//
// Returns:
//   - uint64: the frame count
func (s *FrameStats) TotalFrames() uint64 {
	return s.totalFrames
}

func (s *FrameStats) String() string {
	return fmt.Sprintf("FPS: %.2f | Frame: %.3f ms", s.fps, float64(s.frameTime)/float64(time.Millisecond))
}

func (s *FrameStats) readMemory(elapsed time.Duration) string {
	runtime.ReadMemStats(&s.memStats)
	allocMB := float64(s.memStats.Alloc) / 1024 / 1024
	sysMB := float64(s.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(s.memStats.TotalAlloc-s.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := s.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = s.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := s.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, s.memStats.PauseNs[i%256]/1000)
		}
	}
	s.lastGCCount = gcCount
	s.lastTotalAlloc = s.memStats.TotalAlloc

	return fmt.Sprintf("Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)
}
