// cmd/clipguard/errors.go
package main

import (
	"errors"
	"fmt"
)

// ErrorType categorizes failures by the subsystem they belong to.
type ErrorType string

const (
	ErrorTypeOracle     ErrorType = "oracle"
	ErrorTypeSearch     ErrorType = "search"
	ErrorTypeTranscript ErrorType = "transcript"
	ErrorTypeConfig     ErrorType = "config"
)

// RetryClass drives the retry state machine: a Retryable failure may be
// attempted again with backoff, a NonRetryable one terminates the
// current strategy immediately.
type RetryClass int

const (
	RetryClassNone RetryClass = iota
	RetryClassRetryable
	RetryClassNonRetryable
)

// AnalysisError is the service error type. It carries the subsystem,
// a stable code, and the retry classification used by the transcript
// chain and other retrying callers.
type AnalysisError struct {
	Type      ErrorType
	Code      string
	Message   string
	Component string
	Class     RetryClass
	Inner     error
}

func (e *AnalysisError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("[%s-%s] %s: %v", e.Type, e.Code, e.Message, e.Inner)
	}
	return fmt.Sprintf("[%s-%s] %s", e.Type, e.Code, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Inner }

// NewError creates a plain AnalysisError with no retry classification.
func NewError(errType ErrorType, code, message string, inner error) *AnalysisError {
	return &AnalysisError{Type: errType, Code: code, Message: message, Inner: inner}
}

// NewRetryable marks a transient failure (rate limit, proxy tunnel,
// network timeout) that the caller may retry with backoff.
func NewRetryable(errType ErrorType, code, message string, inner error) *AnalysisError {
	return &AnalysisError{Type: errType, Code: code, Message: message, Class: RetryClassRetryable, Inner: inner}
}

// NewNonRetryable marks a permanent failure (captions disabled, nothing
// found) that must not be retried on the same strategy.
func NewNonRetryable(errType ErrorType, code, message string, inner error) *AnalysisError {
	return &AnalysisError{Type: errType, Code: code, Message: message, Class: RetryClassNonRetryable, Inner: inner}
}

// Error codes.
const (
	ErrOracleCall       = "ORACLE_001"
	ErrOracleBadJSON    = "ORACLE_002"
	ErrSearchCall       = "SEARCH_001"
	ErrSearchRateLimit  = "SEARCH_002"
	ErrCaptionsDisabled = "TRANS_001"
	ErrCaptionsMissing  = "TRANS_002"
	ErrProxyTunnel      = "TRANS_003"
	ErrTranscriptRate   = "TRANS_004"
	ErrSpeechToText     = "TRANS_005"
	ErrConfigLoad       = "CONFIG_001"
	ErrConfigValidation = "CONFIG_002"
)

// ClassifyError returns the retry classification of err, walking the
// wrap chain. Unclassified errors default to retryable so that an
// unexpected network hiccup does not kill a whole strategy tier.
func ClassifyError(err error) RetryClass {
	var ae *AnalysisError
	if errors.As(err, &ae) && ae.Class != RetryClassNone {
		return ae.Class
	}
	return RetryClassRetryable
}

// IsProxyFailure reports whether err is the proxy-specific failure that
// should disable the proxy for the remaining retries of a request.
func IsProxyFailure(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Code == ErrProxyTunnel
}
