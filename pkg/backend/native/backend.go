// Package native adapts a host media player, reached over platform channels,
// to playback.Backend.
//
// One Service multiplexes every native player over a shared method channel
// and a shared event channel. Events carry the player ID and are routed to
// the owning Backend, which forwards them to its controller as callbacks.
package native

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/go-drift/videoview/internal/log"
	verrors "github.com/go-drift/videoview/pkg/errors"
	"github.com/go-drift/videoview/pkg/platform"
	"github.com/go-drift/videoview/pkg/playback"
)

// Channel names used by the native player service.
const (
	MethodChannelName = "native_video_view/backend"
	EventChannelName  = "native_video_view/backend/events"
)

// ErrReleased is returned by Load after Release.
var ErrReleased = errors.New("native: backend released")

// Service owns the channels shared by all native players.
type Service struct {
	channel *platform.MethodChannel
	events  *platform.EventChannel
	sub     *platform.Subscription
	nextID  atomic.Int64
	log     zerolog.Logger

	mu      sync.RWMutex
	players map[int64]*Backend
}

// NewService binds to the registry's backend channels and starts routing
// player events.
func NewService(r *platform.Registry) *Service {
	s := &Service{
		channel: r.MethodChannel(MethodChannelName),
		events:  r.EventChannel(EventChannelName),
		log:     log.WithComponent("backend.native"),
		players: make(map[int64]*Backend),
	}
	s.sub = s.events.Listen(platform.EventHandler{
		OnEvent: s.route,
		OnError: func(err error) {
			verrors.Report(&verrors.Error{
				Op:      "native.eventStream",
				Kind:    verrors.KindPlatform,
				Channel: EventChannelName,
				Err:     err,
			})
		},
	})
	return s
}

// Factory returns a playback.BackendFactory that creates a native player per
// backend.
func (s *Service) Factory() playback.BackendFactory {
	return func(notify playback.Notifier) (playback.Backend, error) {
		return s.create(notify)
	}
}

// Len returns the number of live players.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Close stops routing events and releases every player.
func (s *Service) Close() {
	s.sub.Cancel()
	s.mu.RLock()
	players := make([]*Backend, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	s.mu.RUnlock()
	for _, p := range players {
		p.Release()
	}
}

func (s *Service) create(notify playback.Notifier) (*Backend, error) {
	id := s.nextID.Add(1)
	if _, err := s.channel.Invoke("create", map[string]any{"playerId": id}); err != nil {
		return nil, err
	}
	b := &Backend{svc: s, id: id, notify: notify}
	s.mu.Lock()
	s.players[id] = b
	s.mu.Unlock()
	return b, nil
}

func (s *Service) player(id int64) *Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players[id]
}

func (s *Service) remove(id int64) {
	s.mu.Lock()
	delete(s.players, id)
	s.mu.Unlock()
}

// route delivers a player event. Payload:
//
//	{"playerId": 3, "event": "ready", "durationMs": 1000, "width": 640, "height": 360}
//	{"playerId": 3, "event": "progress", "positionMs": 500}
//	{"playerId": 3, "event": "completed"}
//	{"playerId": 3, "event": "error", "what": 1, "message": "..."}
func (s *Service) route(data any) {
	m := platform.ParseMap(data)
	if m == nil {
		verrors.Report(&verrors.Error{
			Op:      "native.route",
			Kind:    verrors.KindParsing,
			Channel: EventChannelName,
			Err:     &verrors.ParseError{Channel: EventChannelName, DataType: "playerEvent", Got: data},
		})
		return
	}
	id, _ := platform.ToInt64(m["playerId"])
	b := s.player(id)
	if b == nil {
		s.log.Debug().Int64("player", id).Msg("event for unknown player")
		return
	}
	b.handleEvent(platform.ParseString(m["event"]), m)
}

// Backend is one native player.
type Backend struct {
	svc    *Service
	id     int64
	notify playback.Notifier

	mu       sync.RWMutex
	released bool
	position int64
	duration int64
	width    int
	height   int
}

// ID returns the native player ID.
func (b *Backend) ID() int64 {
	return b.id
}

// Load asks native to prepare uri.
func (b *Backend) Load(uri string, opts playback.LoadOptions) error {
	if b.isReleased() {
		return ErrReleased
	}
	_, err := b.svc.channel.Invoke("load", map[string]any{
		"playerId":   b.id,
		"url":        uri,
		"audioFocus": opts.AudioFocus.String(),
	})
	return err
}

// Play starts or resumes playback.
func (b *Backend) Play() { b.invoke("play", nil) }

// Pause pauses playback.
func (b *Backend) Pause() { b.invoke("pause", nil) }

// Stop stops playback.
func (b *Backend) Stop() { b.invoke("stop", nil) }

// SeekTo seeks to positionMillis.
func (b *Backend) SeekTo(positionMillis int64) {
	b.mu.Lock()
	b.position = positionMillis
	b.mu.Unlock()
	b.invoke("seekTo", map[string]any{"positionMs": positionMillis})
}

// SetVolume sets the effective volume.
func (b *Backend) SetVolume(level float64) {
	b.invoke("setVolume", map[string]any{"volume": level})
}

// Position returns the last position reported by native.
func (b *Backend) Position() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.position
}

// Duration returns the duration reported with readiness.
func (b *Backend) Duration() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.duration
}

// Dimensions returns the video size reported with readiness.
func (b *Backend) Dimensions() (width, height int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.width, b.height
}

// Release disposes the native player. Idempotent.
func (b *Backend) Release() {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	b.released = true
	b.mu.Unlock()

	b.svc.remove(b.id)
	b.invokeAlways("dispose", nil)
}

func (b *Backend) isReleased() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.released
}

func (b *Backend) invoke(method string, args map[string]any) {
	if b.isReleased() {
		return
	}
	b.invokeAlways(method, args)
}

func (b *Backend) invokeAlways(method string, args map[string]any) {
	invokeArgs := make(map[string]any, len(args)+1)
	for k, v := range args {
		invokeArgs[k] = v
	}
	invokeArgs["playerId"] = b.id
	if _, err := b.svc.channel.Invoke(method, invokeArgs); err != nil {
		verrors.Report(&verrors.Error{
			Op:      "native." + method,
			Kind:    verrors.KindBackend,
			Channel: MethodChannelName,
			Err:     err,
		})
	}
}

func (b *Backend) handleEvent(event string, m map[string]any) {
	switch event {
	case "ready":
		dur, _ := platform.ToInt64(m["durationMs"])
		w, _ := platform.ToInt(m["width"])
		h, _ := platform.ToInt(m["height"])
		b.mu.Lock()
		b.duration, b.width, b.height = dur, w, h
		b.mu.Unlock()
		b.notify(playback.Ready())
	case "progress":
		pos, _ := platform.ToInt64(m["positionMs"])
		b.mu.Lock()
		b.position = pos
		b.mu.Unlock()
	case "completed":
		b.mu.Lock()
		b.position = b.duration
		b.mu.Unlock()
		b.notify(playback.Completed())
	case "error":
		code := platform.ParseString(m["code"])
		if code == "" {
			what, _ := platform.ToInt(m["what"])
			code = playback.CodeForNative(what)
		}
		b.notify(playback.Failed(code, platform.ParseString(m["message"])))
	default:
		b.svc.log.Debug().Int64("player", b.id).Str("event", event).Msg("ignoring player event")
	}
}
