package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/syncer/internal/config"
	"github.com/five82/syncer/internal/kv"
	"github.com/five82/syncer/internal/logging"
	"github.com/five82/syncer/internal/media"
)

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	applyOverrides(&cfg, Options{})
	if cfg.TabMatch != "" || cfg.PollSeconds != config.Default().PollSeconds {
		t.Fatalf("empty options changed config: %+v", cfg)
	}

	applyOverrides(&cfg, Options{TabMatch: "radio.example", PollEvery: 7})
	if cfg.TabMatch != "radio.example" {
		t.Fatalf("TabMatch = %q, want radio.example", cfg.TabMatch)
	}
	if cfg.PollSeconds != 7 {
		t.Fatalf("PollSeconds = %v, want 7", cfg.PollSeconds)
	}
}

type nopPage struct{}

func (nopPage) Elements(context.Context) (media.Frame, error) { return media.Frame{}, nil }
func (nopPage) Mutate(context.Context, int, string, media.Mutation) (media.Frame, error) {
	return media.Frame{}, nil
}

func TestNewExecutor_RejectsBadPattern(t *testing.T) {
	cfg := config.Default()
	cfg.PlaceholderPattern = "blank(["
	_, err := newExecutor(nopPage{}, cfg, logging.Discard())
	if err == nil || !strings.Contains(err.Error(), "placeholder_pattern") {
		t.Fatalf("newExecutor error = %v, want placeholder_pattern error", err)
	}

	cfg.PlaceholderPattern = config.Default().PlaceholderPattern
	if _, err := newExecutor(nopPage{}, cfg, logging.Discard()); err != nil {
		t.Fatalf("newExecutor returned error: %v", err)
	}
}

func TestOpenStore_FallsBackToMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store, closer := openStore(filepath.Join(blocker, "state.db"), logging.Discard())
	defer closer.Close()
	if _, ok := store.(*kv.Memory); !ok {
		t.Fatalf("store = %T, want *kv.Memory", store)
	}

	store, closer = openStore(filepath.Join(dir, "state.db"), logging.Discard())
	defer closer.Close()
	if _, ok := store.(*kv.SQLite); !ok {
		t.Fatalf("store = %T, want *kv.SQLite", store)
	}
}
