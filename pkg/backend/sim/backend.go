// Package sim provides a simulated media backend. It decodes nothing: it
// reports readiness after a configurable latency, tracks a virtual playback
// position against a clock, and reports completion when the position reaches
// the configured duration.
package sim

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/go-drift/videoview/internal/log"
	"github.com/go-drift/videoview/pkg/playback"
)

// ErrReleased is returned by Load after Release.
var ErrReleased = errors.New("sim: backend released")

// Config configures simulated backends.
type Config struct {
	// Clock schedules callbacks. Defaults to the wall clock.
	Clock clockwork.Clock
	// ReadyLatency is the delay between Load and the ready callback.
	ReadyLatency time.Duration
	// Duration is the length of every simulated source. Defaults to one minute.
	Duration time.Duration
	// Width and Height are the reported video dimensions. Default 1280x720.
	Width, Height int
	// FailURIs lists URIs whose load fails after ReadyLatency.
	FailURIs []string
	// FailCode is the error code reported for FailURIs. Defaults to
	// playback.ErrCodeSourceError.
	FailCode string
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Duration <= 0 {
		c.Duration = time.Minute
	}
	if c.Width == 0 && c.Height == 0 {
		c.Width, c.Height = 1280, 720
	}
	if c.FailCode == "" {
		c.FailCode = playback.ErrCodeSourceError
	}
	return c
}

// Factory returns a playback.BackendFactory producing simulated backends.
func Factory(cfg Config) playback.BackendFactory {
	cfg = cfg.withDefaults()
	return func(notify playback.Notifier) (playback.Backend, error) {
		return New(cfg, notify), nil
	}
}

// Backend is a simulated playback.Backend. It is safe for concurrent use;
// callbacks are delivered from clock goroutines.
type Backend struct {
	cfg    Config
	notify playback.Notifier
	log    zerolog.Logger

	mu         sync.Mutex
	uri        string
	ready      bool
	playing    bool
	released   bool
	position   time.Duration // at anchor
	anchor     time.Time
	volume     float64
	readyTimer clockwork.Timer
	endTimer   clockwork.Timer
	endEpoch   uint64
}

// New creates a backend reporting through notify.
func New(cfg Config, notify playback.Notifier) *Backend {
	cfg = cfg.withDefaults()
	return &Backend{
		cfg:    cfg,
		notify: notify,
		volume: 1,
		log:    log.WithComponent("backend.sim"),
	}
}

// Load schedules the ready (or failure) callback for uri.
func (b *Backend) Load(uri string, _ playback.LoadOptions) error {
	if uri == "" {
		return errors.New("sim: empty uri")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return ErrReleased
	}
	b.uri = uri
	b.ready = false
	b.position = 0
	fail := lo.Contains(b.cfg.FailURIs, uri)
	b.readyTimer = b.cfg.Clock.AfterFunc(b.cfg.ReadyLatency, func() {
		if fail {
			b.deliver(playback.Failed(b.cfg.FailCode, "simulated failure: "+uri))
			return
		}
		b.mu.Lock()
		b.ready = !b.released
		b.mu.Unlock()
		b.deliver(playback.Ready())
	})
	b.log.Debug().Str("uri", uri).Dur("latency", b.cfg.ReadyLatency).Bool("fail", fail).Msg("load")
	return nil
}

// Play starts advancing the position and schedules completion.
func (b *Backend) Play() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready || b.playing || b.released {
		return
	}
	if b.position >= b.cfg.Duration {
		b.position = 0
	}
	b.playing = true
	b.anchor = b.cfg.Clock.Now()
	b.scheduleEndLocked()
}

// Pause freezes the position.
func (b *Backend) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.playing {
		return
	}
	b.position = b.positionLocked()
	b.playing = false
	b.stopTimer(&b.endTimer)
}

// Stop halts playback and rewinds.
func (b *Backend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playing = false
	b.position = 0
	b.stopTimer(&b.endTimer)
}

// SeekTo moves the position, clamped to the source duration.
func (b *Backend) SeekTo(positionMillis int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.position = lo.Clamp(time.Duration(positionMillis)*time.Millisecond, 0, b.cfg.Duration)
	if b.playing {
		b.anchor = b.cfg.Clock.Now()
		b.stopTimer(&b.endTimer)
		b.scheduleEndLocked()
	}
}

// SetVolume records the effective volume.
func (b *Backend) SetVolume(level float64) {
	b.mu.Lock()
	b.volume = level
	b.mu.Unlock()
}

// Volume returns the last volume set.
func (b *Backend) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

// Playing reports whether the virtual position is advancing.
func (b *Backend) Playing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

// Position returns the virtual position in milliseconds.
func (b *Backend) Position() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.positionLocked().Milliseconds()
}

// Duration returns the source duration in milliseconds.
func (b *Backend) Duration() int64 {
	return b.cfg.Duration.Milliseconds()
}

// Dimensions returns the configured video size.
func (b *Backend) Dimensions() (width, height int) {
	return b.cfg.Width, b.cfg.Height
}

// Release cancels pending callbacks. Callbacks already in flight may still
// arrive; the controller discards them.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	b.ready = false
	b.playing = false
	b.stopTimer(&b.readyTimer)
	b.stopTimer(&b.endTimer)
	b.log.Debug().Str("uri", b.uri).Msg("released")
}

// Released reports whether Release has been called.
func (b *Backend) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

func (b *Backend) positionLocked() time.Duration {
	if !b.playing {
		return b.position
	}
	return min(b.position+b.cfg.Clock.Now().Sub(b.anchor), b.cfg.Duration)
}

func (b *Backend) scheduleEndLocked() {
	remaining := b.cfg.Duration - b.position
	b.endEpoch++
	epoch := b.endEpoch
	b.endTimer = b.cfg.Clock.AfterFunc(remaining, func() {
		b.mu.Lock()
		if b.released || !b.playing || epoch != b.endEpoch {
			b.mu.Unlock()
			return
		}
		b.playing = false
		b.position = b.cfg.Duration
		b.mu.Unlock()
		b.deliver(playback.Completed())
	})
}

func (b *Backend) stopTimer(t *clockwork.Timer) {
	if t == &b.endTimer {
		b.endEpoch++
	}
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (b *Backend) deliver(cb playback.Callback) {
	b.mu.Lock()
	released := b.released
	b.mu.Unlock()
	if released || b.notify == nil {
		return
	}
	b.notify(cb)
}
