package cli

import (
	"encoding/json"
	"io"
	"sync"
)

// hostMessage is one line of CLI output: an outbound call from Go to the
// simulated host, or a reply to a command the CLI issued.
type hostMessage struct {
	Channel string          `json:"channel"`
	Method  string          `json:"method"`
	Args    json.RawMessage `json:"args,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// consoleBridge plays the native host: it prints every call Go makes to it
// and forwards them to waiters.
type consoleBridge struct {
	mu     sync.Mutex
	enc    *json.Encoder
	events chan hostMessage
}

func newConsoleBridge(out io.Writer) *consoleBridge {
	return &consoleBridge{
		enc:    json.NewEncoder(out),
		events: make(chan hostMessage, 64),
	}
}

func (b *consoleBridge) InvokeMethod(channel, method string, args []byte) ([]byte, error) {
	msg := hostMessage{Channel: channel, Method: method}
	if len(args) > 0 && string(args) != "null" {
		msg.Args = append(json.RawMessage(nil), args...)
	}
	b.print(msg)
	select {
	case b.events <- msg:
	default:
	}
	return []byte("null"), nil
}

func (b *consoleBridge) StartEventStream(string) error { return nil }
func (b *consoleBridge) StopEventStream(string) error  { return nil }

func (b *consoleBridge) print(msg hostMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.enc.Encode(msg)
}
