package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load()=%v", err)
	}
	if cfg.CrowdSize != 1 || cfg.Frames != 240 || cfg.FrameRate != 60 || !cfg.Temporal {
		t.Errorf("Load()=%+v; expected crowd 1, 240 frames, 60 fps, temporal", cfg)
	}
	if cfg.ProfileInterval != time.Second {
		t.Errorf("ProfileInterval=%v; expected 1s", cfg.ProfileInterval)
	}
	if cfg.WorkerCount() < 1 {
		t.Errorf("WorkerCount()=%d; expected at least 1", cfg.WorkerCount())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OXY_CROWD_SIZE", "16")
	t.Setenv("OXY_WORKERS", "3")
	t.Setenv("OXY_FRAME_RATE", "30")
	t.Setenv("OXY_TEMPORAL", "false")
	t.Setenv("OXY_PROFILE_INTERVAL", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load()=%v", err)
	}
	if cfg.CrowdSize != 16 || cfg.WorkerCount() != 3 || cfg.Temporal {
		t.Errorf("Load()=%+v; expected crowd 16, 3 workers, non-temporal", cfg)
	}
	if d := cfg.FrameDelta(); d != 1.0/30 {
		t.Errorf("FrameDelta()=%v; expected %v", d, 1.0/30)
	}
	if cfg.ProfileInterval != 250*time.Millisecond {
		t.Errorf("ProfileInterval=%v; expected 250ms", cfg.ProfileInterval)
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("OXY_CROWD_SIZE", "many")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Errorf("Load() err=%v; expected a parse env error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"ok", Config{CrowdSize: 1, FrameRate: 60}, nil},
		{"no crowd", Config{CrowdSize: 0, FrameRate: 60}, ErrInvalidCrowdSize},
		{"no rate", Config{CrowdSize: 1, FrameRate: 0}, ErrInvalidFrameRate},
		{"negative workers", Config{CrowdSize: 1, FrameRate: 60, Workers: -2}, ErrInvalidWorkers},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("Validate(%s)=%v; expected %v", tt.name, err, tt.want)
		}
	}
}
