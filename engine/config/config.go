package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	ErrInvalidCrowdSize = errors.New("crowd size must be positive")
	ErrInvalidFrameRate = errors.New("frame rate must be positive")
	ErrInvalidWorkers   = errors.New("worker count must not be negative")
)

// Config holds the process settings of a headless character run.
type Config struct {
	// ModelPath is the YAML model description every crowd member is built from.
	ModelPath string `env:"OXY_MODEL_PATH" envDefault:"examples/assets/walker.yaml"`

	// CrowdSize is the number of characters sharing the model.
	CrowdSize int `env:"OXY_CROWD_SIZE" envDefault:"1"`

	// Workers is the pose evaluation pool size. Zero picks one less than the CPU count.
	Workers int `env:"OXY_WORKERS" envDefault:"0"`

	// Frames is the number of frames to simulate. Zero runs until interrupted.
	Frames int `env:"OXY_FRAMES" envDefault:"240"`

	// FrameRate is the simulated frames per second used to advance playback time.
	FrameRate float64 `env:"OXY_FRAME_RATE" envDefault:"60"`

	// Temporal keeps the previous frame's matrices for motion vectors.
	Temporal bool `env:"OXY_TEMPORAL" envDefault:"true"`

	// ForceFallbackAdapter requests the software WebGPU adapter.
	ForceFallbackAdapter bool `env:"OXY_FORCE_FALLBACK_ADAPTER" envDefault:"false"`

	// ProfileInterval is how often frame statistics are logged.
	ProfileInterval time.Duration `env:"OXY_PROFILE_INTERVAL" envDefault:"1s"`

	// MemoryStats adds heap and GC figures to the frame statistics.
	MemoryStats bool `env:"OXY_MEMORY_STATS" envDefault:"false"`

	// DumpSkeleton prints the loaded skeleton before the run.
	DumpSkeleton bool `env:"OXY_DUMP_SKELETON" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
//
// Parameters:
//   - target: a pointer to a struct with env tags
//
// Returns:
//   - error: a wrapped parse error
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment and validates it.
//
// Returns:
//   - Config: the parsed configuration
//   - error: a parse error or one of the ErrInvalid sentinels
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the numeric settings.
//
// Returns:
//   - error: one of the ErrInvalid sentinels, or nil
func (c *Config) Validate() error {
	if c.CrowdSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCrowdSize, c.CrowdSize)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFrameRate, c.FrameRate)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	return nil
}

// WorkerCount returns the effective pose evaluation pool size.
//
// Returns:
//   - int: Workers, or max(NumCPU-1, 1) when Workers is zero
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return max(runtime.NumCPU()-1, 1)
}

// FrameDelta returns the playback time step of one simulated frame.
//
// Returns:
//   - float64: seconds per frame
func (c *Config) FrameDelta() float64 {
	return 1 / c.FrameRate
}
