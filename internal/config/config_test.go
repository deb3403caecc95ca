package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))
	return dir
}

func TestResolve_Defaults(t *testing.T) {
	dir := t.TempDir()
	r, err := Resolve(dir)
	require.NoError(t, err)

	assert.Equal(t, 1.0, r.Volume.Level)
	assert.False(t, r.Volume.Muted)
	assert.Equal(t, filepath.Join(dir, "assets"), r.AssetRoot)
	assert.Equal(t, zerolog.InfoLevel, r.LogLevel)
	assert.Equal(t, 250*time.Millisecond, r.ReadyLatency)
	assert.Equal(t, 10*time.Second, r.Duration)
	assert.Empty(t, r.FailURIs)
}

func TestResolve_File(t *testing.T) {
	dir := writeConfig(t, `
player:
  volume: 0.4
  muted: true
  requestAudioFocus: true
assets:
  root: /srv/media
log:
  level: DEBUG
sim:
  readyLatency: 50ms
  duration: 2m
  failURIs:
    - https://example.com/broken.mp4
`)
	r, err := Resolve(dir)
	require.NoError(t, err)

	assert.Equal(t, 0.4, r.Volume.Level)
	assert.True(t, r.Volume.Muted)
	assert.True(t, r.RequestAudioFocus)
	assert.Equal(t, "/srv/media", r.AssetRoot)
	assert.Equal(t, zerolog.DebugLevel, r.LogLevel)
	assert.Equal(t, 50*time.Millisecond, r.ReadyLatency)
	assert.Equal(t, 2*time.Minute, r.Duration)
	assert.Equal(t, []string{"https://example.com/broken.mp4"}, r.FailURIs)
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"volume out of range", "player:\n  volume: 1.5\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad latency", "sim:\n  readyLatency: soon\n"},
		{"negative latency", "sim:\n  readyLatency: -1s\n"},
		{"zero duration", "sim:\n  duration: 0s\n"},
		{"malformed yaml", "player: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadOptional_Missing(t *testing.T) {
	cfg, err := LoadOptional(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}
