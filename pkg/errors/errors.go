// Package errors provides structured error reporting for videoview.
//
// Only infrastructure failures travel through this package: bridge invoke
// failures, malformed payloads, and panics recovered on the event loop.
// Invalid playback commands and stale backend callbacks are not errors and
// are never reported here.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindPlatform indicates a platform channel or native bridge error.
	KindPlatform
	// KindParsing indicates a command or event payload could not be parsed.
	KindParsing
	// KindBackend indicates a media backend operation failed outside the
	// asynchronous failure callback (for example a rejected invoke).
	KindBackend
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindPlatform:
		return "platform"
	case KindParsing:
		return "parsing"
	case KindBackend:
		return "backend"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Error represents a structured, reportable error.
type Error struct {
	// Op is the operation that failed (e.g., "videoview.handleCall").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Channel is the platform channel name, if applicable.
	Channel string
	// ViewID is the embedded view the error belongs to, or 0.
	ViewID int64
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("%s [%s]", e.Op, e.Kind)
	if e.ViewID != 0 {
		prefix += fmt.Sprintf(" view=%d", e.ViewID)
	}
	if e.Channel != "" {
		prefix += " channel=" + e.Channel
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "loop.task").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ParseError represents a failure to parse a payload received over a channel.
type ParseError struct {
	// Channel is the platform channel that received the payload.
	Channel string
	// DataType is the expected type name.
	DataType string
	// Got is the actual data received.
	Got any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s from channel %s: got %T", e.DataType, e.Channel, e.Got)
}

// Handler receives reported errors.
type Handler interface {
	// HandleError is called when an error is reported.
	HandleError(err *Error)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
