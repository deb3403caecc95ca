package playback

// Backend is the capability interface every platform media backend
// implements. The controller never branches on the concrete backend.
//
// Load starts preparing media and returns immediately; the backend later
// reports exactly one CallbackReady or CallbackFailed through the Notifier it
// was constructed with, and one CallbackCompleted per play-through. Once
// ready, the imperative methods are assumed to succeed synchronously. Query
// methods are only called after readiness.
//
// A backend must not invoke its Notifier from inside the BackendFactory call
// that constructs it.
type Backend interface {
	Load(uri string, opts LoadOptions) error
	Play()
	Pause()
	Stop()
	SeekTo(positionMillis int64)
	SetVolume(level float64)

	Position() int64
	Duration() int64
	Dimensions() (width, height int)

	// Release frees the backend. No callbacks are honored afterwards.
	Release()
}

// BackendFactory constructs a backend bound to notify.
type BackendFactory func(notify Notifier) (Backend, error)

// AudioFocus is the audio-session policy a backend applies when loading.
type AudioFocus int

const (
	// AudioFocusMixWithOthers plays alongside other audio without taking focus.
	AudioFocusMixWithOthers AudioFocus = iota
	// AudioFocusExclusive takes audio focus from other players.
	AudioFocusExclusive
)

// String returns a label for the policy.
func (f AudioFocus) String() string {
	if f == AudioFocusExclusive {
		return "exclusive"
	}
	return "mix"
}

// LoadOptions carries per-source settings to Backend.Load.
type LoadOptions struct {
	AudioFocus AudioFocus
}

// CallbackKind tags a backend callback.
type CallbackKind int

const (
	// CallbackReady reports the media is prepared and accepts play commands.
	CallbackReady CallbackKind = iota
	// CallbackCompleted reports playback reached the end of the media.
	CallbackCompleted
	// CallbackFailed reports a load or playback failure.
	CallbackFailed
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackReady:
		return "ready"
	case CallbackCompleted:
		return "completed"
	case CallbackFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Callback is an asynchronous notification from a backend. Code and Message
// are set only for CallbackFailed.
type Callback struct {
	Kind    CallbackKind
	Code    string
	Message string
}

// Ready returns a CallbackReady.
func Ready() Callback { return Callback{Kind: CallbackReady} }

// Completed returns a CallbackCompleted.
func Completed() Callback { return Callback{Kind: CallbackCompleted} }

// Failed returns a CallbackFailed with the given code and message.
func Failed(code, message string) Callback {
	return Callback{Kind: CallbackFailed, Code: code, Message: message}
}

// Notifier delivers callbacks from one backend instance. It is safe to call
// from any goroutine; delivery is marshaled onto the controller's dispatcher.
type Notifier func(Callback)
