package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DevtoolsAddr != defaultDevtoolsAddr {
		t.Fatalf("DevtoolsAddr = %q, want %q", cfg.DevtoolsAddr, defaultDevtoolsAddr)
	}
	wantState, err := expandPath(defaultStatePath)
	if err != nil {
		t.Fatalf("expandPath(defaultStatePath) returned error: %v", err)
	}
	if cfg.StatePath != wantState {
		t.Fatalf("StatePath = %q, want %q", cfg.StatePath, wantState)
	}
	if cfg.NudgeSmall != 1 || cfg.NudgeBig != 5 {
		t.Fatalf("nudges = %v/%v, want 1/5", cfg.NudgeSmall, cfg.NudgeBig)
	}
	if cfg.LiveEdgeBuffer != 0.5 {
		t.Fatalf("LiveEdgeBuffer = %v, want 0.5", cfg.LiveEdgeBuffer)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("PollInterval = %v, want 2s", cfg.PollInterval())
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
devtools_addr = "  10.0.0.5:9333  "
tab_match = " radio.example "
state_path = "  ~/.syncer/state.db  "
nudge_big = 10.0
live_edge_buffer = 1.5
poll_seconds = 0.5
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DevtoolsAddr != "10.0.0.5:9333" {
		t.Fatalf("DevtoolsAddr = %q, want %q", cfg.DevtoolsAddr, "10.0.0.5:9333")
	}
	if cfg.TabMatch != "radio.example" {
		t.Fatalf("TabMatch = %q, want %q", cfg.TabMatch, "radio.example")
	}
	if !strings.HasPrefix(cfg.StatePath, home) {
		t.Fatalf("StatePath = %q, want it under HOME %q", cfg.StatePath, home)
	}
	if cfg.NudgeBig != 10 || cfg.NudgeSmall != defaultNudgeSmall {
		t.Fatalf("nudges = %v/%v, want %v/10", cfg.NudgeSmall, cfg.NudgeBig, defaultNudgeSmall)
	}
	if cfg.LiveEdgeBuffer != 1.5 {
		t.Fatalf("LiveEdgeBuffer = %v, want 1.5", cfg.LiveEdgeBuffer)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Fatalf("PollInterval = %v, want 500ms", cfg.PollInterval())
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SYNCER_DEVTOOLS_ADDR", "127.0.0.1:9555")
	t.Setenv("SYNCER_NUDGE_SMALL", "2.5")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
devtools_addr = "127.0.0.1:9333"
nudge_small = 0.5
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DevtoolsAddr != "127.0.0.1:9555" {
		t.Fatalf("DevtoolsAddr = %q, want env override", cfg.DevtoolsAddr)
	}
	if cfg.NudgeSmall != 2.5 {
		t.Fatalf("NudgeSmall = %v, want 2.5", cfg.NudgeSmall)
	}
}

func TestLoad_BadEnvironmentValueFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SYNCER_POLL_SECONDS", "often")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatalf("Load returned nil error, want env parse error")
	}
}

func TestLoad_NegativeValuesRejected(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`nudge_big = -5.0`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "nudge_big") {
		t.Fatalf("Load error = %v, want it to mention nudge_big", err)
	}
}

func TestLoad_UnknownLogLevelRejected(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SYNCER_LOG_LEVEL", "chatty")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Fatalf("Load error = %v, want it to mention log_level", err)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`devtools_addr = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
