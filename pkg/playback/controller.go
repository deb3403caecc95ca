// Package playback implements the playback coordination core of an embedded
// video view: a state machine that reconciles host commands, asynchronous
// readiness notifications from an opaque media backend, and host lifecycle
// transitions.
//
// A Controller is not safe for concurrent use. All of its methods, and every
// backend callback, run on a single dispatcher (see package loop). Backends
// may report from any goroutine; their Notifier marshals the callback onto
// the controller's dispatcher and tags it with the backend's generation so
// that callbacks from superseded instances are discarded.
package playback

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/go-drift/videoview/internal/log"
	"github.com/go-drift/videoview/internal/metrics"
	"github.com/go-drift/videoview/pkg/loop"
)

// Dispatcher schedules a task on the controller's thread.
type Dispatcher interface {
	Dispatch(fn func()) bool
}

// Config configures a Controller.
type Config struct {
	// Backend constructs a backend for every loaded source. Required.
	Backend BackendFactory

	// Dispatcher marshals backend callbacks onto the controller's thread.
	// Defaults to loop.Immediate, which is only correct when backends
	// report on the same thread that drives the controller.
	Dispatcher Dispatcher

	// Resolver turns sources into backend URIs. Defaults to FileURIResolver.
	Resolver Resolver

	// Sink receives events. May be nil and set later with SetSink.
	Sink EventSink

	// Volume is the initial stored volume. The zero value means DefaultVolume.
	Volume *Volume

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// Controller owns the playback state machine for one embedded view.
//
// Invalid commands for the current state are ignored rather than reported,
// since host UIs issue commands from user taps that race lifecycle events.
type Controller struct {
	factory    BackendFactory
	dispatcher Dispatcher
	resolver   Resolver
	sink       EventSink
	log        zerolog.Logger

	state      State
	source     *Source
	volume     Volume
	backend    Backend
	generation uint64
	attached   bool
}

// NewController creates a controller in StateUninitialized.
func NewController(cfg Config) *Controller {
	c := &Controller{
		factory:    cfg.Backend,
		dispatcher: cfg.Dispatcher,
		resolver:   cfg.Resolver,
		sink:       cfg.Sink,
		volume:     DefaultVolume,
	}
	if c.dispatcher == nil {
		c.dispatcher = loop.Immediate{}
	}
	if c.resolver == nil {
		c.resolver = FileURIResolver
	}
	if cfg.Volume != nil {
		c.volume = cfg.Volume.WithLevel(cfg.Volume.Level)
		c.volume.Muted = cfg.Volume.Muted
	}
	if cfg.Logger != nil {
		c.log = *cfg.Logger
	} else {
		c.log = log.WithComponent("playback")
	}
	c.log = c.log.With().Str("session", uuid.NewString()).Logger()
	return c
}

// State returns the current playback state.
func (c *Controller) State() State {
	return c.state
}

// Source returns the stored source, if any.
func (c *Controller) Source() (Source, bool) {
	if c.source == nil {
		return Source{}, false
	}
	return *c.source, true
}

// Volume returns the stored volume.
func (c *Controller) Volume() Volume {
	return c.volume
}

// SetSink replaces the event sink. Pass nil to stop receiving events.
func (c *Controller) SetSink(sink EventSink) {
	c.sink = sink
}

// Attach performs the one-time wiring that lets the controller route backend
// callbacks. SetSource attaches implicitly; the lifecycle bridge attaches on
// host creation. Attach is idempotent until Teardown.
func (c *Controller) Attach() {
	if c.attached {
		return
	}
	c.attached = true
	c.log.Debug().Msg("attached")
}

// Attached reports whether Attach has run since the last Teardown.
func (c *Controller) Attached() bool {
	return c.attached
}

// SetSource replaces the current source and starts loading it on a fresh
// backend. Any existing backend is released first and its pending callbacks
// become stale. The state is StateAwaitingReady if a start was pending,
// otherwise StateUninitialized until the backend reports.
func (c *Controller) SetSource(src Source) {
	metrics.RecordCommand("setSource")
	c.load(src)
}

// Start begins or resumes playback. From StatePrepared or StatePaused it
// plays immediately. From StateUninitialized with a stored source it marks a
// pending start and reloads the source; playback begins when the backend is
// ready. Otherwise it does nothing.
func (c *Controller) Start() {
	metrics.RecordCommand("start")
	switch c.state {
	case StatePrepared, StatePaused:
		c.backend.Play()
		c.setState(StatePlaying)
	case StateUninitialized:
		if c.source == nil {
			return
		}
		c.setState(StateAwaitingReady)
		c.load(*c.source)
	case StatePlaying, StateAwaitingReady:
		// Only one pending start is representable.
	}
}

// Pause pauses playback. It does nothing unless the state is StatePlaying.
func (c *Controller) Pause() {
	metrics.RecordCommand("pause")
	if c.state != StatePlaying {
		return
	}
	c.backend.Pause()
	c.setState(StatePaused)
}

// Stop stops playback and releases the backend. The stored source is
// retained, so a later Start reloads it without a new SetSource.
func (c *Controller) Stop() {
	metrics.RecordCommand("stop")
	if c.backend != nil {
		c.backend.Stop()
	}
	c.releaseBackend()
	c.setState(StateUninitialized)
}

// SeekTo moves the playback position. It does nothing before the backend is
// ready.
func (c *Controller) SeekTo(positionMillis int64) {
	metrics.RecordCommand("seekTo")
	if c.backend == nil || !c.state.ready() {
		return
	}
	if positionMillis < 0 {
		positionMillis = 0
	}
	c.backend.SeekTo(positionMillis)
}

// SetVolume stores a new level, clamped to [0, 1], and unmutes. The volume
// reaches the backend immediately if it is ready, otherwise on readiness.
func (c *Controller) SetVolume(level float64) {
	metrics.RecordCommand("setVolume")
	c.volume = c.volume.WithLevel(level)
	c.applyVolumeIfReady()
}

// ToggleMute flips the muted flag, keeping the stored level.
func (c *Controller) ToggleMute() {
	metrics.RecordCommand("toggleMute")
	c.volume = c.volume.Toggled()
	c.applyVolumeIfReady()
}

// Position returns the playback position in milliseconds, or 0 when no
// ready backend exists.
func (c *Controller) Position() int64 {
	metrics.RecordCommand("currentPosition")
	if c.backend == nil || !c.state.ready() {
		return 0
	}
	return c.backend.Position()
}

// IsPlaying reports whether the state is StatePlaying.
func (c *Controller) IsPlaying() bool {
	metrics.RecordCommand("isPlaying")
	return c.state == StatePlaying
}

// Teardown releases the backend, clears the stored source and the event
// sink, and returns to StateUninitialized. Teardown is idempotent.
func (c *Controller) Teardown() {
	if c.backend == nil && c.source == nil && c.sink == nil && !c.attached && c.state == StateUninitialized {
		return
	}
	c.releaseBackend()
	c.source = nil
	c.sink = nil
	c.attached = false
	c.setState(StateUninitialized)
	c.log.Debug().Msg("torn down")
}

func (c *Controller) load(src Source) {
	c.Attach()
	pending := c.state == StateAwaitingReady
	c.releaseBackend()
	c.source = &src

	uri, err := c.resolver.Resolve(src)
	if err != nil {
		c.fail(ErrCodeSourceError, err.Error())
		return
	}

	// Every construction attempt gets its own generation, so a notifier kept
	// by a factory that failed can never match a later backend.
	c.generation++
	gen := c.generation
	backend, err := c.factory(c.notifier(gen))
	if err != nil {
		c.fail(ErrCodePlaybackFailed, fmt.Sprintf("create backend: %v", err))
		return
	}
	metrics.RecordBackendCreated()
	c.backend = backend

	if pending {
		c.setState(StateAwaitingReady)
	} else {
		c.setState(StateUninitialized)
	}

	opts := LoadOptions{AudioFocus: AudioFocusMixWithOthers}
	if src.RequestAudioFocus {
		opts.AudioFocus = AudioFocusExclusive
	}
	c.log.Debug().
		Uint64("backend", gen).
		Str("kind", src.Kind.String()).
		Str("uri", uri).
		Bool("pending_start", pending).
		Msg("loading source")
	if err := backend.Load(uri, opts); err != nil && c.backend == backend {
		c.fail(ErrCodeSourceError, err.Error())
	}
}

// notifier returns the callback hook handed to the backend of generation gen.
func (c *Controller) notifier(gen uint64) Notifier {
	return func(cb Callback) {
		c.dispatcher.Dispatch(func() {
			c.handleCallback(gen, cb)
		})
	}
}

func (c *Controller) handleCallback(gen uint64, cb Callback) {
	if c.backend == nil || gen != c.generation {
		metrics.RecordStaleCallback()
		c.log.Debug().
			Uint64("backend", gen).
			Uint64("current", c.generation).
			Stringer("callback", cb.Kind).
			Msg("dropping stale callback")
		return
	}
	switch cb.Kind {
	case CallbackReady:
		c.onReady()
	case CallbackCompleted:
		c.onCompleted()
	case CallbackFailed:
		c.fail(cb.Code, cb.Message)
	}
}

func (c *Controller) onReady() {
	switch c.state {
	case StateAwaitingReady:
		c.applyVolume()
		c.backend.Play()
		c.setState(StatePlaying)
	case StateUninitialized:
		c.applyVolume()
		c.setState(StatePrepared)
		w, h := c.backend.Dimensions()
		c.emit(PreparedEvent(w, h, c.backend.Duration()))
	default:
		// Some backends re-report readiness after seeks or rebuffering.
		c.log.Debug().Stringer("state", c.state).Msg("ignoring repeated ready")
	}
}

func (c *Controller) onCompleted() {
	c.backend.Stop()
	c.releaseBackend()
	c.setState(StateUninitialized)
	c.emit(CompletedEvent())
}

// fail handles a terminal failure for the current source.
func (c *Controller) fail(code, message string) {
	if code == "" {
		code = ErrCodePlaybackFailed
	}
	c.releaseBackend()
	c.source = nil
	c.setState(StateUninitialized)
	c.log.Info().Str("code", code).Str("message", message).Msg("source failed")
	c.emit(ErrorEvent(code, message))
}

func (c *Controller) releaseBackend() {
	if c.backend == nil {
		return
	}
	b := c.backend
	c.backend = nil
	b.Release()
}

func (c *Controller) applyVolumeIfReady() {
	if c.backend != nil && c.state.ready() {
		c.applyVolume()
	}
}

func (c *Controller) applyVolume() {
	c.backend.SetVolume(c.volume.Effective())
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.log.Debug().Stringer("from", c.state).Stringer("to", s).Msg("state")
	c.state = s
}

func (c *Controller) emit(ev Event) {
	metrics.RecordEvent(ev.Kind.String())
	if c.sink != nil {
		c.sink.Emit(ev)
	}
}
