package errors

import (
	"github.com/go-drift/videoview/internal/log"
)

// LogHandler is a Handler that writes errors to the structured logger.
type LogHandler struct {
	// Verbose attaches stack traces to logged entries.
	Verbose bool
}

// HandleError logs an Error.
func (h *LogHandler) HandleError(err *Error) {
	if err == nil {
		return
	}
	l := log.WithComponent("errors")
	ev := l.Error().
		Str("op", err.Op).
		Str("kind", err.Kind.String()).
		Err(err.Err)
	if err.Channel != "" {
		ev = ev.Str("channel", err.Channel)
	}
	if err.ViewID != 0 {
		ev = ev.Int64("view", err.ViewID)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("videoview error")
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	l := log.WithComponent("errors")
	ev := l.Error().Str("op", err.Op).Interface("panic", err.Value)
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("videoview panic")
}
