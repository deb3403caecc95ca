package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/videoview/pkg/playback"
)

type recordingTarget struct {
	calls []string
}

func (r *recordingTarget) Attach()   { r.calls = append(r.calls, "attach") }
func (r *recordingTarget) Pause()    { r.calls = append(r.calls, "pause") }
func (r *recordingTarget) Stop()     { r.calls = append(r.calls, "stop") }
func (r *recordingTarget) Teardown() { r.calls = append(r.calls, "teardown") }

var _ Target = (*playback.Controller)(nil)

func TestBridge_SignalMapping(t *testing.T) {
	target := &recordingTarget{}
	b := NewBridge("host-1", target, SignalUnknown)

	for _, sig := range []Signal{SignalCreated, SignalStarted, SignalResumed, SignalPaused, SignalStopped} {
		assert.True(t, b.Handle("host-1", sig), sig.String())
	}
	assert.Equal(t, []string{"attach", "pause", "stop"}, target.calls)
}

func TestBridge_IgnoresForeignInstance(t *testing.T) {
	target := &recordingTarget{}
	b := NewBridge("host-1", target, SignalUnknown)

	assert.False(t, b.Handle("host-2", SignalPaused))
	assert.False(t, b.Handle("host-2", SignalDestroyed))
	assert.Empty(t, target.calls)
	assert.False(t, b.Detached())
}

func TestBridge_DestroyedDetaches(t *testing.T) {
	target := &recordingTarget{}
	b := NewBridge("host-1", target, SignalUnknown)

	assert.True(t, b.Handle("host-1", SignalDestroyed))
	assert.True(t, b.Detached())

	assert.False(t, b.Handle("host-1", SignalPaused))
	assert.False(t, b.Handle("host-1", SignalDestroyed))
	assert.Equal(t, []string{"teardown"}, target.calls)
}

func TestBridge_InitialState(t *testing.T) {
	tests := []struct {
		current Signal
		want    []string
	}{
		{SignalCreated, []string{"attach"}},
		{SignalPaused, []string{"pause"}},
		{SignalStopped, []string{"stop"}},
		{SignalResumed, nil},
		{SignalStarted, nil},
	}
	for _, tt := range tests {
		target := &recordingTarget{}
		NewBridge("host", target, tt.current)
		assert.Equal(t, tt.want, target.calls, tt.current.String())
	}
}

func TestBridge_DrivesController(t *testing.T) {
	var notify playback.Notifier
	c := playback.NewController(playback.Config{
		Backend: func(n playback.Notifier) (playback.Backend, error) {
			notify = n
			return nopBackend{}, nil
		},
	})
	b := NewBridge("host", c, SignalCreated)
	require.True(t, c.Attached())

	c.SetSource(playback.Source{ID: "https://x/v.mp4", Kind: playback.SourceNetwork})
	notify(playback.Ready())
	c.Start()
	require.Equal(t, playback.StatePlaying, c.State())

	b.Handle("host", SignalPaused)
	assert.Equal(t, playback.StatePaused, c.State())

	b.Handle("host", SignalResumed)
	assert.Equal(t, playback.StatePaused, c.State(), "resume does not autoplay")

	b.Handle("host", SignalStopped)
	assert.Equal(t, playback.StateUninitialized, c.State())
	_, ok := c.Source()
	assert.True(t, ok)

	b.Handle("host", SignalDestroyed)
	_, ok = c.Source()
	assert.False(t, ok)
	assert.False(t, c.Attached())
}

func TestParseSignal(t *testing.T) {
	sig, err := ParseSignal("Paused")
	require.NoError(t, err)
	assert.Equal(t, SignalPaused, sig)

	_, err = ParseSignal("unknown")
	assert.Error(t, err)
	_, err = ParseSignal("suspended")
	assert.Error(t, err)

	assert.Equal(t, "unknown", Signal(99).String())
}

type nopBackend struct{}

func (nopBackend) Load(string, playback.LoadOptions) error { return nil }
func (nopBackend) Play()                                   {}
func (nopBackend) Pause()                                  {}
func (nopBackend) Stop()                                   {}
func (nopBackend) SeekTo(int64)                            {}
func (nopBackend) SetVolume(float64)                       {}
func (nopBackend) Position() int64                         { return 0 }
func (nopBackend) Duration() int64                         { return 0 }
func (nopBackend) Dimensions() (int, int)                  { return 0, 0 }
func (nopBackend) Release()                                {}
