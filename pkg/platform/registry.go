package platform

import (
	"fmt"
	"sync"

	"github.com/go-drift/videoview/pkg/errors"
)

// NativeBridge defines the interface for calling native platform code.
type NativeBridge interface {
	// InvokeMethod calls a method on the native side.
	InvokeMethod(channel, method string, args []byte) ([]byte, error)

	// StartEventStream tells native to start sending events for a channel.
	StartEventStream(channel string) error

	// StopEventStream tells native to stop sending events for a channel.
	StopEventStream(channel string) error
}

// ErrChannelNotRegistered is returned when an event is received for an unregistered channel.
var ErrChannelNotRegistered = fmt.Errorf("event channel not registered")

// Registry owns the method and event channels attached to one native bridge.
// Inbound calls from the bridge are routed by channel name.
type Registry struct {
	mu             sync.RWMutex
	bridge         NativeBridge
	methodChannels map[string]*MethodChannel
	eventChannels  map[string]*EventChannel
}

// NewRegistry creates a registry. bridge may be nil and set later with
// SetBridge; until then outbound calls fail with ErrPlatformUnavailable.
func NewRegistry(bridge NativeBridge) *Registry {
	return &Registry{
		bridge:         bridge,
		methodChannels: make(map[string]*MethodChannel),
		eventChannels:  make(map[string]*EventChannel),
	}
}

// SetBridge sets the native bridge and starts event streams for any channel
// that acquired subscriptions before a bridge was available.
func (r *Registry) SetBridge(bridge NativeBridge) {
	r.mu.Lock()
	r.bridge = bridge
	channels := make([]*EventChannel, 0, len(r.eventChannels))
	for _, ch := range r.eventChannels {
		channels = append(channels, ch)
	}
	r.mu.Unlock()

	for _, ch := range channels {
		ch.mu.Lock()
		shouldStart := len(ch.subscriptions) > 0 && !ch.started
		if shouldStart {
			ch.started = true
		}
		ch.mu.Unlock()

		if shouldStart {
			if err := r.startEventStream(ch.name); err != nil {
				ch.mu.Lock()
				ch.started = false
				ch.mu.Unlock()
				ch.dispatchError(err)
			}
		}
	}
}

// MethodChannel returns the method channel with the given name, creating it
// on first use.
func (r *Registry) MethodChannel(name string) *MethodChannel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.methodChannels[name]; ok {
		return ch
	}
	ch := &MethodChannel{name: name, registry: r}
	r.methodChannels[name] = ch
	return ch
}

// EventChannel returns the event channel with the given name, creating it on
// first use.
func (r *Registry) EventChannel(name string) *EventChannel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.eventChannels[name]; ok {
		return ch
	}
	ch := &EventChannel{name: name, registry: r}
	r.eventChannels[name] = ch
	return ch
}

// RemoveMethodChannel unregisters a method channel. Later calls on it from
// native fail with ErrChannelNotFound and Invoke on it fails with ErrClosed.
func (r *Registry) RemoveMethodChannel(name string) {
	r.mu.Lock()
	ch := r.methodChannels[name]
	delete(r.methodChannels, name)
	r.mu.Unlock()
	if ch != nil {
		ch.close()
	}
}

func (r *Registry) getMethodChannel(name string) *MethodChannel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.methodChannels[name]
}

func (r *Registry) getEventChannel(name string) *EventChannel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.eventChannels[name]
}

func (r *Registry) getBridge() NativeBridge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bridge
}

func (r *Registry) invokeNative(channel, method string, args any) (any, error) {
	bridge := r.getBridge()
	if bridge == nil {
		return nil, ErrPlatformUnavailable
	}

	argsData, err := DefaultCodec.Encode(args)
	if err != nil {
		return nil, err
	}

	resultData, err := bridge.InvokeMethod(channel, method, argsData)
	if err != nil {
		return nil, err
	}

	return DefaultCodec.Decode(resultData)
}

func (r *Registry) startEventStream(channel string) error {
	return r.eventStream("platform.startEventStream", channel, func(b NativeBridge) error {
		return b.StartEventStream(channel)
	})
}

func (r *Registry) stopEventStream(channel string) error {
	return r.eventStream("platform.stopEventStream", channel, func(b NativeBridge) error {
		return b.StopEventStream(channel)
	})
}

func (r *Registry) eventStream(op, channel string, call func(NativeBridge) error) error {
	bridge := r.getBridge()
	err := ErrPlatformUnavailable
	if bridge != nil {
		err = call(bridge)
	}
	if err != nil {
		errors.Report(&errors.Error{
			Op:      op,
			Kind:    errors.KindPlatform,
			Channel: channel,
			Err:     err,
		})
	}
	return err
}

// HandleMethodCall is called from the bridge when native invokes a Go method.
func (r *Registry) HandleMethodCall(channel, method string, argsData []byte) ([]byte, error) {
	ch := r.getMethodChannel(channel)
	if ch == nil {
		return nil, ErrChannelNotFound
	}

	args, err := DefaultCodec.Decode(argsData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	result, err := ch.handleCall(method, args)
	if err != nil {
		return nil, err
	}

	return DefaultCodec.Encode(result)
}

// HandleEvent is called from the bridge when native sends an event.
func (r *Registry) HandleEvent(channel string, eventData []byte) error {
	ch, err := r.eventTarget("platform.HandleEvent", channel)
	if err != nil {
		return err
	}

	data, err := DefaultCodec.Decode(eventData)
	if err != nil {
		ch.dispatchError(err)
		return err
	}

	ch.dispatchEvent(data)
	return nil
}

// HandleEventError is called from the bridge when an event stream errors.
func (r *Registry) HandleEventError(channel string, code, message string) error {
	ch, err := r.eventTarget("platform.HandleEventError", channel)
	if err != nil {
		return err
	}
	ch.dispatchError(NewChannelError(code, message))
	return nil
}

// HandleEventDone is called from the bridge when an event stream ends.
func (r *Registry) HandleEventDone(channel string) error {
	ch, err := r.eventTarget("platform.HandleEventDone", channel)
	if err != nil {
		return err
	}
	ch.dispatchDone()
	return nil
}

func (r *Registry) eventTarget(op, channel string) (*EventChannel, error) {
	ch := r.getEventChannel(channel)
	if ch == nil {
		err := fmt.Errorf("%w: %s", ErrChannelNotRegistered, channel)
		errors.Report(&errors.Error{
			Op:      op,
			Kind:    errors.KindPlatform,
			Channel: channel,
			Err:     err,
		})
		return nil, err
	}
	return ch, nil
}
