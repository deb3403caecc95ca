package platform

import (
	"fmt"

	"github.com/go-drift/videoview/pkg/errors"
	"github.com/go-drift/videoview/pkg/lifecycle"
)

// LifecycleChannel is the event channel on which hosts publish container
// lifecycle transitions.
const LifecycleChannel = "native_video_view/lifecycle"

// LifecycleEvent is one host container transition.
type LifecycleEvent struct {
	Instance lifecycle.InstanceID
	Signal   lifecycle.Signal
}

// NewLifecycleStream returns a typed stream of lifecycle events published on
// the registry's LifecycleChannel. Payloads look like
// {"instance": "<host id>", "signal": "paused"}.
func NewLifecycleStream(r *Registry) *Stream[LifecycleEvent] {
	return NewStream(r.EventChannel(LifecycleChannel), parseLifecycleEvent)
}

func parseLifecycleEvent(data any) (LifecycleEvent, error) {
	m := ParseMap(data)
	if m == nil {
		return LifecycleEvent{}, &errors.ParseError{
			Channel:  LifecycleChannel,
			DataType: "LifecycleEvent",
			Got:      data,
		}
	}
	instance := ParseString(m["instance"])
	if instance == "" {
		return LifecycleEvent{}, fmt.Errorf("lifecycle event without instance: %v", m)
	}
	sig, err := lifecycle.ParseSignal(ParseString(m["signal"]))
	if err != nil {
		return LifecycleEvent{}, err
	}
	return LifecycleEvent{Instance: lifecycle.InstanceID(instance), Signal: sig}, nil
}
