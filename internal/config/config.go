// Package config loads the optional videoview.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/videoview/pkg/playback"
)

// FileName is the configuration file looked up by LoadOptional.
const FileName = "videoview.yaml"

// Config represents the optional videoview.yaml configuration.
type Config struct {
	Player PlayerConfig `yaml:"player"`
	Assets AssetsConfig `yaml:"assets"`
	Log    LogConfig    `yaml:"log"`
	Sim    SimConfig    `yaml:"sim"`
}

// PlayerConfig holds initial controller settings.
type PlayerConfig struct {
	Volume            *float64 `yaml:"volume,omitempty"`
	Muted             bool     `yaml:"muted,omitempty"`
	RequestAudioFocus bool     `yaml:"requestAudioFocus,omitempty"`
}

// AssetsConfig locates bundled assets.
type AssetsConfig struct {
	Root string `yaml:"root,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// SimConfig configures the simulated backend.
type SimConfig struct {
	ReadyLatency string   `yaml:"readyLatency,omitempty"`
	Duration     string   `yaml:"duration,omitempty"`
	FailURIs     []string `yaml:"failURIs,omitempty"`
}

// Resolved contains validated configuration with defaults applied.
type Resolved struct {
	Root              string
	Volume            playback.Volume
	RequestAudioFocus bool
	AssetRoot         string
	LogLevel          zerolog.Level
	ReadyLatency      time.Duration
	Duration          time.Duration
	FailURIs          []string
}

// LoadOptional reads videoview.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads videoview.yaml (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(dir)
}

// Resolve validates cfg and fills defaults. Relative asset roots are taken
// relative to dir.
func (cfg *Config) Resolve(dir string) (*Resolved, error) {
	volume := playback.DefaultVolume
	if cfg.Player.Volume != nil {
		v := *cfg.Player.Volume
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("player.volume must be within [0, 1], got %v", v)
		}
		volume = volume.WithLevel(v)
	}
	volume.Muted = cfg.Player.Muted

	assetRoot := strings.TrimSpace(cfg.Assets.Root)
	if assetRoot == "" {
		assetRoot = "assets"
	}
	if !filepath.IsAbs(assetRoot) {
		assetRoot = filepath.Join(dir, assetRoot)
	}

	level := zerolog.InfoLevel
	if raw := strings.TrimSpace(cfg.Log.Level); raw != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid log.level %q: %w", raw, err)
		}
		level = parsed
	}

	latency, err := parseDuration("sim.readyLatency", cfg.Sim.ReadyLatency, 250*time.Millisecond)
	if err != nil {
		return nil, err
	}
	duration, err := parseDuration("sim.duration", cfg.Sim.Duration, 10*time.Second)
	if err != nil {
		return nil, err
	}
	if duration == 0 {
		return nil, fmt.Errorf("sim.duration must be positive")
	}

	return &Resolved{
		Root:              dir,
		Volume:            volume,
		RequestAudioFocus: cfg.Player.RequestAudioFocus,
		AssetRoot:         assetRoot,
		LogLevel:          level,
		ReadyLatency:      latency,
		Duration:          duration,
		FailURIs:          cfg.Sim.FailURIs,
	}, nil
}

func parseDuration(field, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}
