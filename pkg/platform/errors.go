package platform

import "errors"

// ErrClosed is returned when invoking through a method channel that has been
// removed from its registry.
var ErrClosed = errors.New("platform: channel closed")
