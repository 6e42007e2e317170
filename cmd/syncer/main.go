package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/syncer/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config path (optional, defaults to ~/.config/syncer/config.toml)")
	prefsPath := flag.String("prefs", "", "preferences path (optional, defaults to ~/.config/syncer/prefs.toml)")
	tabMatch := flag.String("tab", "", "only control tabs whose URL contains this text (optional)")
	pollSeconds := flag.Int("poll", 0, "detect interval in seconds (optional, defaults to 2s)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		TabMatch:   *tabMatch,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "syncer: %v\n", err)
		return 1
	}
	return 0
}
