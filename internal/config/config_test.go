package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sorta/internal/loops"
	"sorta/internal/personality"
)

// clearEnv keeps ambient SORTA_* variables from leaking into tests that
// assert file or default values.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SORTA_MOOD", "")
	t.Setenv("SORTA_CHAOS", "")
	t.Setenv("SORTA_SEED", "")
	t.Setenv("SORTA_CHRONICLE", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Personality.Mood != string(personality.DefaultMood) {
		t.Errorf("expected Mood=%s, got %s", personality.DefaultMood, cfg.Personality.Mood)
	}
	if cfg.Personality.Chaos != personality.DefaultChaos {
		t.Errorf("expected Chaos=%d, got %d", personality.DefaultChaos, cfg.Personality.Chaos)
	}
	if cfg.Limits.MaxWhileCycles != loops.DefaultMaxWhileCycles {
		t.Errorf("expected MaxWhileCycles=%d, got %d", loops.DefaultMaxWhileCycles, cfg.Limits.MaxWhileCycles)
	}
	if !cfg.Chronicle.Enabled || cfg.Chronicle.DatabasePath == "" {
		t.Errorf("expected chronicle enabled with a path, got %+v", cfg.Chronicle)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".sorta.yaml")

	cfg := DefaultConfig()
	cfg.Personality.Mood = "cautious"
	cfg.Personality.Chaos = 3
	cfg.Personality.Seed = 99
	cfg.Limits.MaxWhileCycles = 500
	cfg.Chronicle.DatabasePath = "alt/chronicle.db"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Personality.Mood != "cautious" || loaded.Personality.Chaos != 3 {
		t.Errorf("expected cautious/3, got %s/%d", loaded.Personality.Mood, loaded.Personality.Chaos)
	}
	if loaded.Personality.Seed != 99 {
		t.Errorf("expected Seed=99, got %d", loaded.Personality.Seed)
	}
	if loaded.Limits.MaxWhileCycles != 500 {
		t.Errorf("expected MaxWhileCycles=500, got %d", loaded.Limits.MaxWhileCycles)
	}
	if loaded.Chronicle.DatabasePath != "alt/chronicle.db" {
		t.Errorf("expected chronicle path alt/chronicle.db, got %s", loaded.Chronicle.DatabasePath)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-file.yaml"))
	if err != nil {
		t.Fatalf("Load of missing file failed: %v", err)
	}
	if cfg.Personality.Mood != string(personality.DefaultMood) {
		t.Errorf("expected default mood, got %s", cfg.Personality.Mood)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".sorta.yaml")
	body := "personality:\n  mood: reliable\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Personality.Mood != "reliable" {
		t.Errorf("expected Mood=reliable, got %s", cfg.Personality.Mood)
	}
	if cfg.Personality.Chaos != personality.DefaultChaos {
		t.Errorf("unlisted chaos should keep default %d, got %d", personality.DefaultChaos, cfg.Personality.Chaos)
	}
	if cfg.Limits.SampleWindow != loops.DefaultSampleWindow {
		t.Errorf("unlisted limits should keep defaults, got %+v", cfg.Limits)
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sorta.yaml")
	if err := os.WriteFile(path, []byte("personality: [not, a, map"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error for malformed yaml")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}

	cfg.Personality.Mood = "grumpy"
	if err := cfg.Validate(); !errors.Is(err, personality.ErrUnknownMood) {
		t.Errorf("expected ErrUnknownMood for grumpy, got: %v", err)
	}

	cfg = DefaultConfig()
	cfg.Personality.Chaos = 0
	if err := cfg.Validate(); !errors.Is(err, personality.ErrChaosRange) {
		t.Errorf("expected ErrChaosRange for chaos 0, got: %v", err)
	}

	cfg = DefaultConfig()
	cfg.Transform.Debounce = "soon"
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error for unparseable debounce")
	}

	cfg = DefaultConfig()
	cfg.Chronicle.DatabasePath = ""
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error for enabled chronicle without path")
	}
}

func TestConfig_LoopLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MaxWhileCycles = 200
	cfg.Limits.SampleWindow = 40

	got := cfg.LoopLimits()
	want := loops.Limits{
		MaxWhileCycles: 200,
		SampleWindow:   40,
		MinSamples:     loops.DefaultMinSamples,
		MaxEvaluations: loops.DefaultMaxEvaluations,
	}
	if got != want {
		t.Errorf("LoopLimits() = %+v, want %+v", got, want)
	}
}

func TestConfig_GetDebounce(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetDebounce(); got != 500*time.Millisecond {
		t.Errorf("default debounce = %v, want 500ms", got)
	}

	cfg.Transform.Debounce = "2s"
	if got := cfg.GetDebounce(); got != 2*time.Second {
		t.Errorf("debounce = %v, want 2s", got)
	}

	cfg.Transform.Debounce = "soon"
	if got := cfg.GetDebounce(); got != 500*time.Millisecond {
		t.Errorf("unparseable debounce = %v, want 500ms fallback", got)
	}
}
