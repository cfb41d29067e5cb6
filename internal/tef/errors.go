package tef

import (
	"errors"
	"fmt"
)

var (
	ErrOperationInFlight = errors.New("another TEF operation is already in flight")
	ErrNoPending         = errors.New("no pending transactions to resolve")
	ErrNotFound          = errors.New("no pending transaction with that NSU")
)

// FailureKind classifies failures so callers can pick the right remediation.
type FailureKind string

const (
	// FailureIO covers temp write, rename and delete errors. The operation
	// aborted before reaching the engine; safe to retry.
	FailureIO FailureKind = "IO_FAILURE"

	// FailureEngineUnresponsive means no ack appeared within the ack timeout.
	// Safe to retry with a new request id.
	FailureEngineUnresponsive FailureKind = "ENGINE_UNRESPONSIVE"

	// FailureResponseTimeout means the ack was seen but the result never
	// arrived. The engine may or may not have processed the payment; the
	// outcome is unknown and needs manual verification.
	FailureResponseTimeout FailureKind = "RESPONSE_TIMEOUT"
)

// Ambiguous reports whether the transaction's true state at the engine is
// unknown. Such failures must never be presented as a plain denial.
func (k FailureKind) Ambiguous() bool {
	return k == FailureResponseTimeout
}

// ProtocolError is a classified failure of the file handshake. RequestID is
// set once the failed exchange had consumed an identifier, so the journal can
// track the unresolved attempt.
type ProtocolError struct {
	Kind      FailureKind
	RequestID string
	Err       error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func newIOFailure(format string, args ...any) *ProtocolError {
	return &ProtocolError{Kind: FailureIO, Err: fmt.Errorf(format, args...)}
}

// ClassifyFailure extracts the failure kind from an error chain, defaulting
// to FailureIO for untyped errors.
func ClassifyFailure(err error) FailureKind {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return FailureIO
}

// FailedRequestID returns the identifier the failed exchange consumed, if it
// got that far.
func FailedRequestID(err error) string {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.RequestID
	}
	return ""
}

func stampRequestID(err error, id string) error {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		pe.RequestID = id
		return err
	}
	return &ProtocolError{Kind: FailureIO, RequestID: id, Err: err}
}
