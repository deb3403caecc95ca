package playback

// State is the playback state of a Controller. Exactly one value holds at any
// time and only the controller changes it.
//
// Loading is not a distinct state: between SetSource and the backend's ready
// callback the controller reports StateUninitialized (or StateAwaitingReady
// when a start is pending).
type State int

const (
	// StateUninitialized indicates no source is loaded, a load is still in
	// flight, or the backend has been torn down.
	StateUninitialized State = iota

	// StateAwaitingReady indicates a start was requested before the backend
	// signaled readiness. Playback begins as soon as the ready callback arrives.
	StateAwaitingReady

	// StatePrepared indicates the backend is ready and no start is pending.
	StatePrepared

	// StatePlaying indicates the backend is actively advancing.
	StatePlaying

	// StatePaused indicates the backend holds its position and can resume
	// without reloading.
	StatePaused
)

// String returns a human-readable label for the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateAwaitingReady:
		return "AwaitingReady"
	case StatePrepared:
		return "Prepared"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ready reports whether a backend in this state has signaled readiness and
// accepts imperative commands.
func (s State) ready() bool {
	return s == StatePrepared || s == StatePlaying || s == StatePaused
}
