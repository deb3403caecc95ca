package playback

// EventKind identifies a host-visible playback event.
type EventKind int

const (
	// EventPrepared reports the source is ready. Width, Height and
	// DurationMillis are set.
	EventPrepared EventKind = iota
	// EventCompleted reports playback reached the end of the source.
	EventCompleted
	// EventError reports a terminal failure for the current source. Code and
	// Message are set.
	EventError
)

// String returns the event's wire name.
func (k EventKind) String() string {
	switch k {
	case EventPrepared:
		return "onPrepared"
	case EventCompleted:
		return "onCompletion"
	case EventError:
		return "onError"
	default:
		return "unknown"
	}
}

// Event is emitted by a Controller to its EventSink.
type Event struct {
	Kind           EventKind
	Width          int
	Height         int
	DurationMillis int64
	Code           string
	Message        string
}

// PreparedEvent returns an EventPrepared.
func PreparedEvent(width, height int, durationMillis int64) Event {
	return Event{Kind: EventPrepared, Width: width, Height: height, DurationMillis: durationMillis}
}

// CompletedEvent returns an EventCompleted.
func CompletedEvent() Event {
	return Event{Kind: EventCompleted}
}

// ErrorEvent returns an EventError.
func ErrorEvent(code, message string) Event {
	return Event{Kind: EventError, Code: code, Message: message}
}

// EventSink receives controller events. Emit is called on the controller's
// dispatcher.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

// Emit calls f(ev).
func (f EventSinkFunc) Emit(ev Event) {
	f(ev)
}
