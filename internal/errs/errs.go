// Package errs defines the error taxonomy for the voicemail pipeline.
// Each component raises its own kind; the pipeline controller maps kinds to
// result codes without reclassifying them.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// ConfigurationError reports a missing mandatory setting or event field.
// It is raised before any external call is made.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Field)
}

// RecordingNotFoundError reports an exhausted recording search.
type RecordingNotFoundError struct {
	CallID string
	Probes int
}

func (e *RecordingNotFoundError) Error() string {
	return fmt.Sprintf("recording not found for call %s after %d probes", e.CallID, e.Probes)
}

// TranscriptionTimeoutError reports a transcription job that did not reach a
// terminal status within the polling bound.
type TranscriptionTimeoutError struct {
	JobName string
	Waited  time.Duration
}

func (e *TranscriptionTimeoutError) Error() string {
	return fmt.Sprintf("transcription job %s timed out after %s", e.JobName, e.Waited)
}

// TranscriptionFailedError reports a terminal FAILED job status or an
// unusable result payload.
type TranscriptionFailedError struct {
	JobName string
	Reason  string
}

func (e *TranscriptionFailedError) Error() string {
	return fmt.Sprintf("transcription job %s failed: %s", e.JobName, e.Reason)
}

// NotificationDispatchError reports a failed send to the notification
// collaborator. The pipeline reports it but does not retry.
type NotificationDispatchError struct {
	Recipient string
	Err       error
}

func (e *NotificationDispatchError) Error() string {
	return fmt.Sprintf("notification dispatch to %s failed: %v", e.Recipient, e.Err)
}

func (e *NotificationDispatchError) Unwrap() error { return e.Err }

// UnexpectedError wraps any collaborator fault not otherwise classified.
type UnexpectedError struct {
	Op  string
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// Code maps an error to the result code the invoker receives.
func Code(err error) int {
	var (
		cfgErr      *ConfigurationError
		notFound    *RecordingNotFoundError
		timeout     *TranscriptionTimeoutError
		transcribe  *TranscriptionFailedError
		dispatchErr *NotificationDispatchError
	)
	switch {
	case errors.As(err, &cfgErr):
		return 400
	case errors.As(err, &notFound):
		return 404
	case errors.As(err, &timeout):
		return 504
	case errors.As(err, &transcribe):
		return 502
	case errors.As(err, &dispatchErr):
		return 502
	default:
		return 500
	}
}

// Kind returns a short machine-readable name for the error kind.
func Kind(err error) string {
	var (
		cfgErr      *ConfigurationError
		notFound    *RecordingNotFoundError
		timeout     *TranscriptionTimeoutError
		transcribe  *TranscriptionFailedError
		dispatchErr *NotificationDispatchError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &notFound):
		return "recording_not_found"
	case errors.As(err, &timeout):
		return "transcription_timeout"
	case errors.As(err, &transcribe):
		return "transcription_failed"
	case errors.As(err, &dispatchErr):
		return "notification_dispatch"
	default:
		return "unexpected"
	}
}
