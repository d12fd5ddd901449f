package profiler

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestTickReportsEachInterval(t *testing.T) {
	start := time.Unix(100, 0)
	var lines []string
	s := NewFrameStats(start, WithLogger(func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}))

	now := start
	reports := 0
	for i := 0; i < 120; i++ {
		now = now.Add(20 * time.Millisecond)
		if s.Tick(now) {
			reports++
		}
	}
	if reports != 2 {
		t.Fatalf("reports=%d; expected 2 over 2.4s", reports)
	}
	if s.FPS() != 50 {
		t.Errorf("FPS()=%v; expected 50", s.FPS())
	}
	if s.FrameTime() != 20*time.Millisecond {
		t.Errorf("FrameTime()=%v; expected 20ms", s.FrameTime())
	}
	if s.TotalFrames() != 120 {
		t.Errorf("TotalFrames()=%d; expected 120", s.TotalFrames())
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "[Profiler] FPS: 50.00 | Frame: 20.000 ms") {
		t.Errorf("logged %q; expected two [Profiler] reports", lines)
	}
}

func TestTickWithMemoryStats(t *testing.T) {
	start := time.Unix(0, 0)
	var line string
	s := NewFrameStats(start,
		WithUpdateInterval(100*time.Millisecond),
		WithMemoryStats(true),
		WithLogger(func(format string, args ...any) { line = fmt.Sprintf(format, args...) }),
	)
	if s.Tick(start.Add(50 * time.Millisecond)) {
		t.Errorf("Tick() before the interval reported")
	}
	if !s.Tick(start.Add(100 * time.Millisecond)) {
		t.Fatalf("Tick() at the interval did not report")
	}
	if !strings.Contains(line, "Heap:") {
		t.Errorf("report %q lacks memory figures", line)
	}
}

func TestTickIgnoresClockGoingBackwards(t *testing.T) {
	start := time.Unix(10, 0)
	s := NewFrameStats(start, WithLogger(nil), WithUpdateInterval(0))
	if s.Tick(start.Add(-time.Second)) {
		t.Errorf("Tick() with a negative elapsed time reported")
	}
}
