package playback

// Canonical media error codes carried by CallbackFailed and EventError.
// Backends map platform-specific failures to these codes so hosts receive
// consistent values across platforms.
const (
	// ErrCodeSourceError indicates the media source could not be resolved or
	// loaded. Covers network failures, invalid URLs, missing assets,
	// unsupported formats, and container parsing errors.
	ErrCodeSourceError = "source_error"

	// ErrCodeDecoderError indicates the media could not be decoded or
	// rendered.
	ErrCodeDecoderError = "decoder_error"

	// ErrCodePlaybackFailed indicates a general playback failure that
	// does not fit a more specific category.
	ErrCodePlaybackFailed = "playback_failed"
)

// Native error classes reported as numeric codes by platform players.
const (
	nativeErrorSource   = 0
	nativeErrorRenderer = 1
)

// CodeForNative maps a numeric native error class to a canonical code.
func CodeForNative(what int) string {
	switch what {
	case nativeErrorSource:
		return ErrCodeSourceError
	case nativeErrorRenderer:
		return ErrCodeDecoderError
	default:
		return ErrCodePlaybackFailed
	}
}
