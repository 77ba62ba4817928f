package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fatal engine errors so callers can render a precise
// one-line cause and remediation hint without string matching.
type ErrorKind string

// Fatal error kinds. AlreadyCurrent and NothingToUninstall are normal run
// outcomes, not errors, and deliberately have no kind here.
const (
	KindNetworkUnavailable    ErrorKind = "network_unavailable"
	KindResolutionFailed      ErrorKind = "resolution_failed"
	KindNotFound              ErrorKind = "not_found"
	KindInsufficientDiskSpace ErrorKind = "insufficient_disk_space"
	KindIntegrityFailed       ErrorKind = "integrity_failed"
	KindApplyFailed           ErrorKind = "apply_failed"
	KindUntrustedSignature    ErrorKind = "untrusted_signature"
)

// EngineError is a fatal error carrying its taxonomy kind and an optional
// remediation hint for the user.
type EngineError struct {
	Kind    ErrorKind
	Message string
	Hint    string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewError creates an EngineError with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an EngineError wrapping an underlying cause.
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithHint attaches a remediation hint and returns the error.
func (e *EngineError) WithHint(hint string) *EngineError {
	e.Hint = hint
	return e
}

// KindOf returns the kind of err if it is (or wraps) an EngineError,
// otherwise the empty string.
func KindOf(err error) ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// HintOf returns the remediation hint of err, if any.
func HintOf(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Hint
	}
	return ""
}
