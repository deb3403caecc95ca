package playback

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records every call made by the controller.
type fakeBackend struct {
	id       int
	notify   Notifier
	calls    []string
	volumes  []float64
	seeks    []int64
	loaded   string
	opts     LoadOptions
	loadErr  error
	released bool

	width, height int
	duration      int64
	position      int64
}

func (b *fakeBackend) Load(uri string, opts LoadOptions) error {
	b.calls = append(b.calls, "load")
	b.loaded = uri
	b.opts = opts
	return b.loadErr
}
func (b *fakeBackend) Play()                  { b.calls = append(b.calls, "play") }
func (b *fakeBackend) Pause()                 { b.calls = append(b.calls, "pause") }
func (b *fakeBackend) Stop()                  { b.calls = append(b.calls, "stop") }
func (b *fakeBackend) SeekTo(pos int64)       { b.seeks = append(b.seeks, pos) }
func (b *fakeBackend) SetVolume(v float64)    { b.volumes = append(b.volumes, v) }
func (b *fakeBackend) Position() int64        { return b.position }
func (b *fakeBackend) Duration() int64        { return b.duration }
func (b *fakeBackend) Dimensions() (int, int) { return b.width, b.height }
func (b *fakeBackend) Release()               { b.released = true }

func (b *fakeBackend) count(call string) int {
	n := 0
	for _, c := range b.calls {
		if c == call {
			n++
		}
	}
	return n
}

// queue is a dispatcher that holds tasks until flushed, standing in for the
// controller's event loop.
type queue struct {
	tasks []func()
}

func (q *queue) Dispatch(fn func()) bool {
	q.tasks = append(q.tasks, fn)
	return true
}

func (q *queue) flush() {
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		task()
	}
}

type harness struct {
	t        *testing.T
	c        *Controller
	q        *queue
	backends []*fakeBackend
	events   []Event
	factErr  error
	loadErr  error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, q: &queue{}}
	h.c = NewController(Config{
		Backend: func(notify Notifier) (Backend, error) {
			if h.factErr != nil {
				return nil, h.factErr
			}
			b := &fakeBackend{
				id:       len(h.backends) + 1,
				notify:   notify,
				width:    1920,
				height:   1080,
				duration: 60000,
				loadErr:  h.loadErr,
			}
			h.backends = append(h.backends, b)
			return b, nil
		},
		Dispatcher: h.q,
		Sink:       EventSinkFunc(func(ev Event) { h.events = append(h.events, ev) }),
	})
	return h
}

// latest returns the most recently constructed backend.
func (h *harness) latest() *fakeBackend {
	h.t.Helper()
	require.NotEmpty(h.t, h.backends, "no backend constructed")
	return h.backends[len(h.backends)-1]
}

// report delivers cb from backend b and drains the dispatcher.
func (h *harness) report(b *fakeBackend, cb Callback) {
	b.notify(cb)
	h.q.flush()
}

var network = Source{ID: "https://x/video.mp4", Kind: SourceNetwork}

func TestController_PreparedStartCompleteScenario(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(network)
	b := h.latest()
	assert.Equal(t, "https://x/video.mp4", b.loaded)
	assert.Equal(t, StateUninitialized, h.c.State())

	h.report(b, Ready())
	assert.Equal(t, StatePrepared, h.c.State())

	h.c.Start()
	assert.True(t, h.c.IsPlaying())

	h.report(b, Completed())
	assert.False(t, h.c.IsPlaying())
	assert.Equal(t, StateUninitialized, h.c.State())
	assert.True(t, b.released)

	want := []Event{PreparedEvent(1920, 1080, 60000), CompletedEvent()}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"load", "play", "stop"}, b.calls)
}

func TestController_StartWithoutSourceIsNoop(t *testing.T) {
	h := newHarness(t)

	h.c.Start()

	assert.Empty(t, h.backends, "no backend should be constructed")
	assert.Empty(t, h.events)
	assert.False(t, h.c.IsPlaying())
	assert.Equal(t, StateUninitialized, h.c.State())
}

func TestController_CommandsWhileUninitializedAreNoops(t *testing.T) {
	h := newHarness(t)

	commands := []func(){
		h.c.Start,
		h.c.Pause,
		h.c.Stop,
		func() { h.c.SeekTo(1000) },
		func() { h.c.SetVolume(0.5) },
		h.c.ToggleMute,
		func() { h.c.Position() },
		func() { h.c.IsPlaying() },
		h.c.Teardown,
	}
	for round := 0; round < 3; round++ {
		for _, cmd := range commands {
			cmd()
			require.Equal(t, StateUninitialized, h.c.State())
		}
	}
	assert.Empty(t, h.backends)
	assert.Empty(t, h.events)
	assert.Zero(t, h.c.Position())
}

func TestController_DoubleStartBeforeReadyPlaysOnce(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(network)
	h.c.Start()
	h.c.Start()
	assert.Equal(t, StateAwaitingReady, h.c.State())

	b := h.latest()
	h.report(b, Ready())

	assert.Equal(t, StatePlaying, h.c.State())
	assert.Equal(t, 1, b.count("play"))
	for _, old := range h.backends[:len(h.backends)-1] {
		assert.Zero(t, old.count("play"), "superseded backend must not play")
	}
	assert.Empty(t, h.events, "deferred start emits no prepared event")
}

func TestController_StaleReadyFromSupersededSource(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(Source{ID: "/a.mp4", Kind: SourceFile})
	first := h.latest()
	second := Source{ID: "https://x/b.mp4", Kind: SourceNetwork}
	h.c.SetSource(second)
	latest := h.latest()
	require.NotSame(t, first, latest)
	assert.True(t, first.released)

	h.report(latest, Failed(ErrCodeSourceError, "404"))
	h.report(first, Ready())

	assert.Equal(t, StateUninitialized, h.c.State())
	want := []Event{ErrorEvent(ErrCodeSourceError, "404")}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, first.volumes, "stale ready must not touch the old backend")
}

func TestController_StaleReadyArrivesBeforeCurrent(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(Source{ID: "/a.mp4", Kind: SourceFile})
	first := h.latest()
	h.c.SetSource(network)
	latest := h.latest()

	h.report(first, Ready())
	assert.Equal(t, StateUninitialized, h.c.State())
	assert.Empty(t, h.events)

	latest.width, latest.height, latest.duration = 640, 360, 5000
	h.report(latest, Ready())
	assert.Equal(t, StatePrepared, h.c.State())
	want := []Event{PreparedEvent(640, 360, 5000)}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestController_StopThenStartReloadsStoredSource(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(network)
	first := h.latest()
	h.report(first, Ready())
	h.c.Start()

	h.c.Stop()
	assert.Equal(t, StateUninitialized, h.c.State())
	assert.True(t, first.released)
	src, ok := h.c.Source()
	require.True(t, ok, "stop retains the source")
	assert.Equal(t, network, src)

	h.c.Start()
	assert.Equal(t, StateAwaitingReady, h.c.State())
	second := h.latest()
	require.NotSame(t, first, second)
	assert.Equal(t, network.ID, second.loaded)

	h.report(second, Ready())
	assert.Equal(t, StatePlaying, h.c.State())
	assert.Equal(t, 1, second.count("play"))
}

func TestController_VolumeBeforeReadyAppliedOnce(t *testing.T) {
	h := newHarness(t)

	h.c.SetVolume(0.3)
	h.c.SetSource(network)
	b := h.latest()
	assert.Empty(t, b.volumes, "volume must wait for readiness")

	h.report(b, Ready())
	assert.Equal(t, []float64{0.3}, b.volumes)

	h.c.Start()
	h.c.Pause()
	h.c.Start()
	assert.Equal(t, []float64{0.3}, b.volumes, "transitions must not re-apply volume")

	h.c.ToggleMute()
	h.c.ToggleMute()
	assert.Equal(t, []float64{0.3, 0, 0.3}, b.volumes)
}

func TestController_VolumeReappliedAfterReload(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(network)
	h.report(h.latest(), Ready())
	h.c.SetVolume(0.6)
	h.c.ToggleMute()

	h.c.SetSource(network)
	b := h.latest()
	h.report(b, Ready())
	assert.Equal(t, []float64{0}, b.volumes, "muted state survives reload")

	h.c.SetVolume(2)
	assert.Equal(t, Volume{Level: 1}, h.c.Volume(), "setVolume clamps and unmutes")
	assert.Equal(t, []float64{0, 1}, b.volumes)
}

func TestController_PauseResume(t *testing.T) {
	h := newHarness(t)

	h.c.Pause()
	h.c.SetSource(network)
	b := h.latest()
	h.c.Pause()
	assert.Zero(t, b.count("pause"), "pause before ready is a no-op")

	h.report(b, Ready())
	h.c.Pause()
	assert.Equal(t, StatePrepared, h.c.State())

	h.c.Start()
	h.c.Pause()
	h.c.Pause()
	assert.Equal(t, StatePaused, h.c.State())
	assert.Equal(t, 1, b.count("pause"))

	h.c.Start()
	assert.Equal(t, StatePlaying, h.c.State())
	assert.Equal(t, 2, b.count("play"))
}

func TestController_SeekOnlyWhenReady(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(network)
	b := h.latest()
	h.c.SeekTo(1000)
	assert.Empty(t, b.seeks)

	h.report(b, Ready())
	h.c.SeekTo(2500)
	h.c.SeekTo(-5)
	assert.Equal(t, []int64{2500, 0}, b.seeks)
	assert.Equal(t, StatePrepared, h.c.State(), "seek does not change state")
}

func TestController_PositionQuery(t *testing.T) {
	h := newHarness(t)
	assert.Zero(t, h.c.Position())

	h.c.SetSource(network)
	b := h.latest()
	b.position = 1234
	assert.Zero(t, h.c.Position(), "position before ready defaults to 0")

	h.report(b, Ready())
	assert.Equal(t, int64(1234), h.c.Position())
}

func TestController_ErrorClearsSource(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(network)
	h.c.Start()
	b := h.latest()
	h.report(b, Failed(ErrCodeDecoderError, "codec"))

	assert.Equal(t, StateUninitialized, h.c.State())
	assert.True(t, b.released)
	_, ok := h.c.Source()
	assert.False(t, ok)

	built := len(h.backends)
	h.c.Start()
	assert.Len(t, h.backends, built, "no automatic retry after an error")
	assert.Equal(t, StateUninitialized, h.c.State())

	h.report(b, Ready())
	assert.Len(t, h.events, 1, "callbacks after an error are stale")
}

func TestController_FailedWithoutCodeUsesPlaybackFailed(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(network)
	h.report(h.latest(), Failed("", "boom"))
	require.Len(t, h.events, 1)
	assert.Equal(t, ErrCodePlaybackFailed, h.events[0].Code)
}

func TestController_LoadErrorReported(t *testing.T) {
	h := newHarness(t)
	h.loadErr = errors.New("unsupported container")

	h.c.SetSource(network)

	b := h.latest()
	assert.True(t, b.released)
	assert.Equal(t, StateUninitialized, h.c.State())
	want := []Event{ErrorEvent(ErrCodeSourceError, "unsupported container")}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestController_FactoryErrorReported(t *testing.T) {
	h := newHarness(t)
	h.factErr = errors.New("no decoder")

	h.c.SetSource(network)

	assert.Empty(t, h.backends)
	require.Len(t, h.events, 1)
	assert.Equal(t, ErrCodePlaybackFailed, h.events[0].Code)
	assert.Contains(t, h.events[0].Message, "no decoder")
	_, ok := h.c.Source()
	assert.False(t, ok)
}

func TestController_FailedFactoryNotifierIsStale(t *testing.T) {
	var (
		kept     Notifier
		attempts int
		backends []*fakeBackend
		events   []Event
	)
	q := &queue{}
	c := NewController(Config{
		Backend: func(notify Notifier) (Backend, error) {
			attempts++
			if attempts == 1 {
				kept = notify
				return nil, errors.New("no decoder")
			}
			b := &fakeBackend{notify: notify, width: 1, height: 1, duration: 1}
			backends = append(backends, b)
			return b, nil
		},
		Dispatcher: q,
		Sink:       EventSinkFunc(func(ev Event) { events = append(events, ev) }),
	})

	c.SetSource(network)
	c.SetSource(network)
	require.Len(t, backends, 1)

	kept(Ready())
	q.flush()

	assert.Equal(t, StateUninitialized, c.State(), "ready from a failed construction must be dropped")
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)

	backends[0].notify(Ready())
	q.flush()
	assert.Equal(t, StatePrepared, c.State())
}

func TestController_ResolverFailure(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(Source{ID: "", Kind: SourceAsset})

	assert.Empty(t, h.backends, "no backend for an unresolvable source")
	require.Len(t, h.events, 1)
	assert.Equal(t, ErrCodeSourceError, h.events[0].Code)
}

func TestController_FileAndAssetRewritten(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(Source{ID: "/sdcard/clip.mp4", Kind: SourceFile, RequestAudioFocus: true})
	assert.Equal(t, "file:///sdcard/clip.mp4", h.latest().loaded)
	assert.Equal(t, AudioFocusExclusive, h.latest().opts.AudioFocus)

	h.c.SetSource(Source{ID: "videos/intro.mp4", Kind: SourceAsset})
	assert.Equal(t, "file://videos/intro.mp4", h.latest().loaded)
	assert.Equal(t, AudioFocusMixWithOthers, h.latest().opts.AudioFocus)
}

func TestController_RepeatedReadyIgnored(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(network)
	b := h.latest()
	h.report(b, Ready())
	h.c.Start()
	h.report(b, Ready())

	assert.Equal(t, StatePlaying, h.c.State())
	assert.Len(t, h.events, 1)
	assert.Equal(t, 1, b.count("play"))
}

func TestController_TeardownIsIdempotent(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(network)
	b := h.latest()
	h.c.Teardown()
	h.c.Teardown()

	assert.True(t, b.released)
	assert.False(t, h.c.Attached())
	_, ok := h.c.Source()
	assert.False(t, ok)

	h.report(b, Ready())
	assert.Empty(t, h.events)
	assert.Equal(t, StateUninitialized, h.c.State())

	h.c.Start()
	assert.Len(t, h.backends, 1, "start after teardown has no source to reload")
}

func TestController_TeardownClearsSink(t *testing.T) {
	h := newHarness(t)
	h.c.Teardown()

	h.c.SetSource(network)
	h.report(h.latest(), Ready())
	assert.Empty(t, h.events, "listeners are cleared by teardown")
	assert.Equal(t, StatePrepared, h.c.State())
}

func TestController_InitialVolume(t *testing.T) {
	var b *fakeBackend
	c := NewController(Config{
		Backend: func(notify Notifier) (Backend, error) {
			b = &fakeBackend{notify: notify}
			return b, nil
		},
		Volume: &Volume{Level: 0.4, Muted: true},
	})

	c.SetSource(network)
	b.notify(Ready()) // immediate dispatcher
	assert.Equal(t, StatePrepared, c.State())
	assert.Equal(t, []float64{0}, b.volumes)

	c.ToggleMute()
	assert.Equal(t, []float64{0, 0.4}, b.volumes)
}

func TestController_CompletionRetainsSource(t *testing.T) {
	h := newHarness(t)

	h.c.SetSource(network)
	b := h.latest()
	h.report(b, Ready())
	h.c.Start()
	h.report(b, Completed())

	src, ok := h.c.Source()
	require.True(t, ok)
	assert.Equal(t, network, src)

	h.c.Start()
	assert.Equal(t, StateAwaitingReady, h.c.State())
}
