package platform

import (
	"encoding/json"
	"sync"
)

// RecordingBridge is a NativeBridge that records every outbound call and
// answers with a configurable result. It is intended for tests.
type RecordingBridge struct {
	mu      sync.Mutex
	calls   []BridgeCall
	streams map[string]bool

	// Reply, if set, produces the result for each invoke.
	Reply func(channel, method string, args any) (any, error)
}

// BridgeCall is one recorded invoke.
type BridgeCall struct {
	Channel string
	Method  string
	Args    any // JSON-decoded
}

// InvokeMethod records the call and returns Reply's result, or null.
func (b *RecordingBridge) InvokeMethod(channel, method string, argsData []byte) ([]byte, error) {
	var args any
	if len(argsData) > 0 {
		_ = json.Unmarshal(argsData, &args)
	}
	b.mu.Lock()
	b.calls = append(b.calls, BridgeCall{Channel: channel, Method: method, Args: args})
	reply := b.Reply
	b.mu.Unlock()

	var result any
	if reply != nil {
		var err error
		if result, err = reply(channel, method, args); err != nil {
			return nil, err
		}
	}
	return DefaultCodec.Encode(result)
}

// StartEventStream records the stream as active.
func (b *RecordingBridge) StartEventStream(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streams == nil {
		b.streams = make(map[string]bool)
	}
	b.streams[channel] = true
	return nil
}

// StopEventStream records the stream as inactive.
func (b *RecordingBridge) StopEventStream(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.streams, channel)
	return nil
}

// Calls returns the recorded calls, optionally filtered to one channel.
func (b *RecordingBridge) Calls(channel string) []BridgeCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []BridgeCall
	for _, c := range b.calls {
		if channel == "" || c.Channel == channel {
			out = append(out, c)
		}
	}
	return out
}

// Methods returns the method names recorded on channel, in order.
func (b *RecordingBridge) Methods(channel string) []string {
	var out []string
	for _, c := range b.Calls(channel) {
		out = append(out, c.Method)
	}
	return out
}

// StreamActive reports whether native was asked to stream channel.
func (b *RecordingBridge) StreamActive(channel string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streams[channel]
}

// Reset clears recorded calls.
func (b *RecordingBridge) Reset() {
	b.mu.Lock()
	b.calls = b.calls[:0]
	b.mu.Unlock()
}
