package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/five82/syncer/internal/action"
	"github.com/five82/syncer/internal/cdp"
	"github.com/five82/syncer/internal/config"
	"github.com/five82/syncer/internal/kv"
	"github.com/five82/syncer/internal/logging"
	"github.com/five82/syncer/internal/media"
	"github.com/five82/syncer/internal/offset"
	"github.com/five82/syncer/internal/prefs"
	"github.com/five82/syncer/internal/state"
	"github.com/five82/syncer/internal/ui"
)

// Options configure the syncer application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/syncer/prefs.toml
	TabMatch   string // overrides tab_match when set
	PollEvery  int    // seconds; zero uses the configured value
}

const (
	browserAttempts   = 5
	browserRetryDelay = time.Second
)

// Run boots the syncer TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, opts)

	logger, logCloser, err := logging.OpenFile(cfg.LogPath, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()
	ctx = logging.AddToContext(ctx, logger)
	logger.Info("syncer starting",
		slog.String("devtools", cfg.DevtoolsAddr),
		slog.String("tab_match", cfg.TabMatch),
		slog.String("state", cfg.StatePath))

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath
	}
	userPrefs, _ := prefs.Load(prefsPath)

	client, err := cdp.NewClient(cfg.DevtoolsAddr)
	if err != nil {
		return fmt.Errorf("init devtools client: %w", err)
	}
	info, err := client.WaitForBrowser(ctx, browserAttempts, browserRetryDelay)
	if err != nil {
		logger.Error("browser unreachable", slog.String("err", err.Error()))
		return fmt.Errorf("%w (is Chromium running with --remote-debugging-port?)", err)
	}
	logger.Info("browser found", slog.String("browser", info.Browser))

	host := cdp.NewHost(client, cfg.TabMatch, logger)
	defer host.Close()

	exec, err := newExecutor(host, cfg, logger)
	if err != nil {
		return err
	}

	kvStore, kvCloser := openStore(cfg.StatePath, logger)
	defer kvCloser.Close()

	ctrl := offset.New(exec, kvStore, offset.WithLogger(logger))

	store := &state.Store{}
	StartPoller(ctx, store, exec, cfg.PollInterval())

	return ui.Run(ui.Options{
		Context:    ctx,
		Controller: ctrl,
		Store:      store,
		Logger:     logger,
		PollTick:   time.Second,
		NudgeSmall: cfg.NudgeSmall,
		NudgeBig:   cfg.NudgeBig,
		LogPath:    cfg.LogPath,
		ThemeName:  userPrefs.Theme,
		ShowLog:    userPrefs.ShowLog,
		PrefsPath:  prefsPath,
	})
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.TabMatch != "" {
		cfg.TabMatch = opts.TabMatch
	}
	if opts.PollEvery > 0 {
		cfg.PollSeconds = float64(opts.PollEvery)
	}
}

func newExecutor(page media.Page, cfg config.Config, logger *slog.Logger) (*action.Executor, error) {
	prober, err := media.NewProber(cfg.PlaceholderPattern)
	if err != nil {
		return nil, fmt.Errorf("placeholder_pattern: %w", err)
	}
	return action.NewExecutor(page, prober,
		action.WithLiveEdgeBuffer(cfg.LiveEdgeBuffer),
		action.WithLogger(logger),
	), nil
}

// openStore opens the SQLite state store. When it cannot be opened the
// offset only lives as long as the process.
func openStore(path string, logger *slog.Logger) (kv.Store, io.Closer) {
	db, err := kv.OpenSQLite(path)
	if err != nil {
		logger.Warn("state store unavailable, keeping offset in memory",
			slog.String("path", path),
			slog.String("err", err.Error()))
		return kv.NewMemory(), io.NopCloser(nil)
	}
	return db, db
}
