// Package payload defines the record shape for captured failure events.
package payload

import (
	"errors"
	"fmt"
)

// Kind names the capture point a payload originated from.
type Kind string

// Supported payload kinds.
const (
	// KindError is a recovered panic in the host application.
	KindError Kind = "error"
	// KindUnhandledRejection is a background task failure nobody awaited.
	KindUnhandledRejection Kind = "unhandledRejection"
	// KindConsoleError is an intercepted error-level log call.
	KindConsoleError Kind = "consoleError"
)

// ErrorPayload is the unit of durability and transport. A payload is built
// once at capture time and never mutated afterward, so the JSON encoding
// written to session storage is the same one handed to the sender.
type ErrorPayload struct {
	// Type names the capture point that produced the payload.
	Type Kind `json:"type"`
	// Timestamp is milliseconds since the Unix epoch, assigned at capture
	// time. Non-decreasing per capture point.
	Timestamp int64 `json:"timestamp"`
	// Message is a human-readable summary. Console error payloads may leave
	// it empty and carry Args instead.
	Message string `json:"message,omitempty"`
	// Stack is the stack trace text, when one was available.
	Stack string `json:"stack,omitempty"`
	// Filename, Lineno and Colno locate the failure site. Set only for
	// KindError payloads.
	Filename string `json:"filename,omitempty"`
	Lineno   int    `json:"lineno,omitempty"`
	Colno    int    `json:"colno,omitempty"`
	// Args is the serialized argument list of an intercepted log call. Set
	// only for KindConsoleError payloads.
	Args []any `json:"args,omitempty"`
}

// Validate performs coarse validation on payloads arriving over the wire.
func (p ErrorPayload) Validate() error {
	if p.Timestamp <= 0 {
		return errors.New("timestamp is required")
	}
	switch p.Type {
	case KindError, KindUnhandledRejection:
		if p.Message == "" {
			return fmt.Errorf("%s payload requires a message", p.Type)
		}
	case KindConsoleError:
		if p.Message == "" && len(p.Args) == 0 {
			return errors.New("consoleError payload requires a message or args")
		}
	default:
		return fmt.Errorf("unknown payload type %q", p.Type)
	}
	return nil
}
