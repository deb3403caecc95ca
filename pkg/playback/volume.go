package playback

import "github.com/samber/lo"

// Volume is the stored output volume. It is kept across every transition
// except Teardown and re-applied to each backend once it is ready.
type Volume struct {
	Level float64 // 0.0 to 1.0
	Muted bool
}

// DefaultVolume is full volume, unmuted.
var DefaultVolume = Volume{Level: 1}

// WithLevel returns v with the level clamped to [0, 1]. Setting an explicit
// level unmutes.
func (v Volume) WithLevel(level float64) Volume {
	return Volume{Level: lo.Clamp(level, 0, 1)}
}

// Toggled returns v with the muted flag flipped.
func (v Volume) Toggled() Volume {
	v.Muted = !v.Muted
	return v
}

// Effective returns the level the backend should play at.
func (v Volume) Effective() float64 {
	if v.Muted {
		return 0
	}
	return v.Level
}
