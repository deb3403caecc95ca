// Package lifecycle forwards host container lifecycle transitions to a
// playback controller.
//
// A Bridge is bound to exactly one host container instance. Hosts may reuse
// or recreate containers, so every signal carries the instance it belongs to
// and signals for other instances are ignored. Like the controller it drives,
// a Bridge must only be used from the controller's dispatcher.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/go-drift/videoview/internal/log"
	"github.com/go-drift/videoview/internal/metrics"
)

// Signal is a host container lifecycle transition.
type Signal int

const (
	// SignalUnknown is the zero value; it triggers nothing.
	SignalUnknown Signal = iota
	SignalCreated
	SignalStarted
	SignalResumed
	SignalPaused
	SignalStopped
	SignalDestroyed
)

var signalNames = [...]string{
	SignalUnknown:   "unknown",
	SignalCreated:   "created",
	SignalStarted:   "started",
	SignalResumed:   "resumed",
	SignalPaused:    "paused",
	SignalStopped:   "stopped",
	SignalDestroyed: "destroyed",
}

// String returns the lowercase signal name.
func (s Signal) String() string {
	if s < 0 || int(s) >= len(signalNames) {
		return "unknown"
	}
	return signalNames[s]
}

// ParseSignal parses a signal name, case-insensitively.
func ParseSignal(name string) (Signal, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range signalNames {
		if i != int(SignalUnknown) && n == name {
			return Signal(i), nil
		}
	}
	return SignalUnknown, fmt.Errorf("unknown lifecycle signal %q", name)
}

// InstanceID identifies a host container instance.
type InstanceID string

// Target is the set of controller operations lifecycle signals map to.
// *playback.Controller implements it.
type Target interface {
	Attach()
	Pause()
	Stop()
	Teardown()
}

// Bridge maps lifecycle signals for one host instance onto a Target.
type Bridge struct {
	instance InstanceID
	target   Target
	detached bool
	log      zerolog.Logger
}

// NewBridge binds target to the host instance and applies the host's current
// lifecycle state once: a view created while its host is paused starts out
// paused, one created while the host is stopped starts out stopped.
func NewBridge(instance InstanceID, target Target, current Signal) *Bridge {
	b := &Bridge{
		instance: instance,
		target:   target,
		log:      log.WithComponent("lifecycle").With().Str("instance", string(instance)).Logger(),
	}
	b.apply(current)
	return b
}

// Instance returns the host instance the bridge is bound to.
func (b *Bridge) Instance() InstanceID {
	return b.instance
}

// Detached reports whether the bridge has stopped forwarding signals.
func (b *Bridge) Detached() bool {
	return b.detached
}

// Handle forwards sig if it belongs to the bridge's instance and the bridge
// is still attached. It reports whether the signal was forwarded.
//
//   - Created: one-time wiring (Attach); does not start playback.
//   - Paused: Pause.
//   - Stopped: Stop.
//   - Destroyed: Teardown, then the bridge detaches.
//   - Started, Resumed: nothing; resuming is left to an explicit start.
func (b *Bridge) Handle(instance InstanceID, sig Signal) bool {
	handled := !b.detached && instance == b.instance
	metrics.RecordLifecycleSignal(sig.String(), handled)
	if !handled {
		b.log.Debug().
			Str("from", string(instance)).
			Stringer("signal", sig).
			Bool("detached", b.detached).
			Msg("ignoring lifecycle signal")
		return false
	}
	b.apply(sig)
	return true
}

// Detach stops forwarding without tearing the target down. Idempotent.
func (b *Bridge) Detach() {
	b.detached = true
}

func (b *Bridge) apply(sig Signal) {
	if b.detached {
		return
	}
	b.log.Debug().Stringer("signal", sig).Msg("lifecycle")
	switch sig {
	case SignalCreated:
		b.target.Attach()
	case SignalPaused:
		b.target.Pause()
	case SignalStopped:
		b.target.Stop()
	case SignalDestroyed:
		b.target.Teardown()
		b.detached = true
	case SignalStarted, SignalResumed, SignalUnknown:
	}
}
