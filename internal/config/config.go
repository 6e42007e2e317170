package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved syncer configuration.
type Config struct {
	DevtoolsAddr       string  `toml:"devtools_addr" envconfig:"DEVTOOLS_ADDR"`
	TabMatch           string  `toml:"tab_match" envconfig:"TAB_MATCH"`
	StatePath          string  `toml:"state_path" envconfig:"STATE_PATH"`
	LogPath            string  `toml:"log_path" envconfig:"LOG_PATH"`
	LogLevel           string  `toml:"log_level" envconfig:"LOG_LEVEL"`
	NudgeSmall         float64 `toml:"nudge_small" envconfig:"NUDGE_SMALL"`
	NudgeBig           float64 `toml:"nudge_big" envconfig:"NUDGE_BIG"`
	LiveEdgeBuffer     float64 `toml:"live_edge_buffer" envconfig:"LIVE_EDGE_BUFFER"`
	PlaceholderPattern string  `toml:"placeholder_pattern" envconfig:"PLACEHOLDER_PATTERN"`
	PollSeconds        float64 `toml:"poll_seconds" envconfig:"POLL_SECONDS"`
}

const (
	envPrefix = "SYNCER"

	defaultConfigPath         = "~/.config/syncer/config.toml"
	defaultDevtoolsAddr       = "127.0.0.1:9222"
	defaultStatePath          = "~/.local/share/syncer/state.db"
	defaultLogPath            = "~/.local/share/syncer/syncer.log"
	defaultLogLevel           = "info"
	defaultNudgeSmall         = 1.0
	defaultNudgeBig           = 5.0
	defaultLiveEdgeBuffer     = 0.5
	defaultPlaceholderPattern = `(?i)blank\.mp4`
	defaultPollSeconds        = 2.0
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DevtoolsAddr:       defaultDevtoolsAddr,
		StatePath:          mustExpand(defaultStatePath),
		LogPath:            mustExpand(defaultLogPath),
		LogLevel:           defaultLogLevel,
		NudgeSmall:         defaultNudgeSmall,
		NudgeBig:           defaultNudgeBig,
		LiveEdgeBuffer:     defaultLiveEdgeBuffer,
		PlaceholderPattern: defaultPlaceholderPattern,
		PollSeconds:        defaultPollSeconds,
	}
}

// Load reads the TOML config at path (or the default location), applies
// SYNCER_* environment overrides and fills defaults for anything unset.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// PollInterval is the detect poll period.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds * float64(time.Second))
}

func (c *Config) normalize() {
	c.DevtoolsAddr = strings.TrimSpace(c.DevtoolsAddr)
	if c.DevtoolsAddr == "" {
		c.DevtoolsAddr = defaultDevtoolsAddr
	}
	c.TabMatch = strings.TrimSpace(c.TabMatch)

	c.StatePath = strings.TrimSpace(c.StatePath)
	if c.StatePath == "" {
		c.StatePath = defaultStatePath
	}
	c.StatePath = mustExpand(c.StatePath)

	c.LogPath = strings.TrimSpace(c.LogPath)
	if c.LogPath == "" {
		c.LogPath = defaultLogPath
	}
	c.LogPath = mustExpand(c.LogPath)

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	if c.NudgeSmall == 0 {
		c.NudgeSmall = defaultNudgeSmall
	}
	if c.NudgeBig == 0 {
		c.NudgeBig = defaultNudgeBig
	}
	if c.LiveEdgeBuffer == 0 {
		c.LiveEdgeBuffer = defaultLiveEdgeBuffer
	}
	if strings.TrimSpace(c.PlaceholderPattern) == "" {
		c.PlaceholderPattern = defaultPlaceholderPattern
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = defaultPollSeconds
	}
}

func (c Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	for name, v := range map[string]float64{
		"nudge_small":      c.NudgeSmall,
		"nudge_big":        c.NudgeBig,
		"live_edge_buffer": c.LiveEdgeBuffer,
		"poll_seconds":     c.PollSeconds,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a positive number, got %v", name, v)
		}
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
