package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the answer pipeline so the router and
// formatter can react without inspecting error strings.
type ErrorKind string

const (
	// KindTranslation means the model output could not be parsed or failed
	// validation against the accepted parameter set.
	KindTranslation ErrorKind = "translation_failure"
	// KindUpstreamTimeout means an outbound call exceeded its deadline.
	KindUpstreamTimeout ErrorKind = "upstream_timeout"
	// KindUpstreamQuota means the provider rejected the call for rate or
	// quota reasons. Retryable by the caller; never retried here, a silent
	// retry could double external API spend.
	KindUpstreamQuota ErrorKind = "upstream_quota_exceeded"
	// KindUpstreamAuth means the provider rejected our credential. Fatal,
	// not retried.
	KindUpstreamAuth ErrorKind = "upstream_auth_failure"
	// KindUpstream is any other provider-side failure.
	KindUpstream ErrorKind = "upstream_failure"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind      ErrorKind
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Retryable: kind == KindUpstreamQuota, Err: err}
}

// Errorf wraps a formatted message with a kind.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return NewError(kind, fmt.Errorf(format, args...))
}

// KindOf extracts the kind of err, or KindUpstream if it carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUpstream
}

// IsRetryable reports whether the caller may usefully retry the request.
func IsRetryable(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Retryable
}
