package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies failures at component boundaries. Kinds are carried
// in-band on records and fan-out outcomes; they never abort a whole batch.
type ErrorKind string

const (
	KindRemoteUnreachable ErrorKind = "remote_unreachable"
	KindRemoteRejected    ErrorKind = "remote_rejected"
	KindDecodeFailed      ErrorKind = "decode_failed"
	KindTimedOut          ErrorKind = "timed_out"
	KindUpstreamEmpty     ErrorKind = "upstream_empty"
	KindCapacityExceeded  ErrorKind = "capacity_exceeded"
	KindInternal          ErrorKind = "internal"
)

// PipelineError attaches an ErrorKind and the failing operation to an error.
type PipelineError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Errf builds a PipelineError with a formatted message.
func Errf(kind ErrorKind, op, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// httpStatusError wraps a non-success HTTP status code.
type httpStatusError struct {
	StatusCode int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Classify maps an arbitrary error onto an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimedOut
	}

	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		return KindRemoteRejected
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindDecodeFailed
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return KindRemoteUnreachable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimedOut
		}
		return KindRemoteUnreachable
	}

	return KindInternal
}
