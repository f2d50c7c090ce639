package errcode

import (
	"errors"
	"sync/atomic"
)

// Code is a stable, caller-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Port validation
	InvalidPort     Code = "invalid_port"
	ConfigMismatch  Code = "config_mismatch"
	InvalidPair     Code = "invalid_pair"
	InvalidArgument Code = "invalid_argument"

	// Transport / service
	Busy           Code = "busy"
	Timeout        Code = "timeout"
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"
	InvalidTopic   Code = "invalid_topic"
	HALNotReady    Code = "hal_not_ready"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap attaches an operation name and cause to a code.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}

// Class groups codes the way the platform's errno does.
type Class uint8

const (
	ClassNone    Class = iota
	ClassInvalid       // caller error: bad port, bad pair, wrong config, bad argument
	ClassIO            // transport failed or timed out
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassInvalid:
		return "invalid_argument"
	default:
		return "io"
	}
}

// ClassOf reports the classification of c.
func ClassOf(c Code) Class {
	switch c {
	case OK:
		return ClassNone
	case InvalidPort, ConfigMismatch, InvalidPair, InvalidArgument,
		InvalidParams, InvalidPayload, InvalidTopic:
		return ClassInvalid
	default:
		return ClassIO
	}
}

// Last is a settable last-error slot. The zero value reports OK.
type Last struct {
	v atomic.Value // Code
}

// Set records the code of err. A nil err leaves the slot untouched.
func (l *Last) Set(err error) {
	if err == nil {
		return
	}
	l.v.Store(Of(err))
}

// Get returns the most recently recorded code.
func (l *Last) Get() Code {
	if c, ok := l.v.Load().(Code); ok {
		return c
	}
	return OK
}

// Clear resets the slot to OK.
func (l *Last) Clear() { l.v.Store(OK) }
