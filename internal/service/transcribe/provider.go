// Package transcribe submits and polls asynchronous transcription jobs
// against an external speech-to-text collaborator.
package transcribe

import (
	"context"
	"errors"
	"path"
	"strings"

	"voicemail-notify-service/internal/models"
)

// Status is the externally reported state of a transcription job.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// ErrJobNameTaken is returned by StartJob when the derived job name collides
// with an existing job at the provider.
var ErrJobNameTaken = errors.New("transcription job name already taken")

// ErrUnknownJob is returned when a status or result is requested for a job
// the provider has no record of.
var ErrUnknownJob = errors.New("unknown transcription job")

// Job is the external job handle. ResultRef is present only when the status
// is COMPLETED; FailureReason only when FAILED.
type Job struct {
	Name          string
	Status        Status
	ResultRef     string
	FailureReason string
}

// JobRequest describes a transcription job submission.
type JobRequest struct {
	JobName      string
	MediaURI     string
	MediaFormat  string // empty when the format could not be inferred
	LanguageCode string
}

// Provider is the interface to a transcription backend (Google, mock, ...).
type Provider interface {
	// StartJob submits a new job. Returns ErrJobNameTaken on a name
	// collision.
	StartJob(ctx context.Context, req JobRequest) error

	// JobStatus reports the current job state.
	JobStatus(ctx context.Context, jobName string) (Job, error)

	// FetchResult retrieves and parses the result payload of a completed
	// job.
	FetchResult(ctx context.Context, job Job) (models.TranscriptResult, error)
}

// supportedFormats are the media formats the providers accept as an explicit
// hint; anything else is left for the provider to sniff.
var supportedFormats = map[string]struct{}{
	"mp3": {}, "mp4": {}, "wav": {}, "flac": {},
	"ogg": {}, "amr": {}, "webm": {}, "opus": {},
}

// FormatHint returns the media format derived from the URI extension, or
// empty when the extension is not a supported format.
func FormatHint(mediaURI string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(mediaURI), "."))
	if _, ok := supportedFormats[ext]; ok {
		return ext
	}
	return ""
}
