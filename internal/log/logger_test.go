package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestWithComponent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test"})

	l := WithComponent("playback")
	l.Debug().Str("state", "Playing").Msg("transition")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if entry["component"] != "playback" {
		t.Errorf("component = %v, want playback", entry["component"])
	}
	if entry["service"] != "test" {
		t.Errorf("service = %v, want test", entry["service"])
	}
	if entry["state"] != "Playing" {
		t.Errorf("state = %v, want Playing", entry["state"])
	}
}

func TestConfigureLevelFilters(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	Configure(Config{Level: "warn", Output: &buf})

	l := WithComponent("loop")
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %q", buf.String())
	}
}
