// Package models defines the data structures for voicemail processing.
package models

import "time"

// TriggerEvent is the raw payload the telephony platform posts when a call
// with a recorded voicemail completes. Attributes carries free-form key/value
// pairs set by the call flow (recipient email, display name).
type TriggerEvent struct {
	CallID        string            `json:"callId"`
	CallerAddress string            `json:"callerAddress"`
	Attributes    map[string]string `json:"attributes"`
}

// ContactEvent is the validated, immutable input to one pipeline invocation.
type ContactEvent struct {
	CallID         string
	CallerAddress  string
	RecipientEmail string
	RecipientName  string
	InvocationID   string
	ReceivedAt     time.Time
}

// RecordingLocation is a resolved object-store address. It exists only after
// a successful search.
type RecordingLocation struct {
	Bucket        string
	Key           string
	Timestamp     time.Time
	OffsetMinutes int
}

// URI returns the object URI for the transcription provider.
func (l RecordingLocation) URI() string {
	return "gs://" + l.Bucket + "/" + l.Key
}

// ItemKind distinguishes spoken content from punctuation in a transcript.
type ItemKind string

const (
	ItemPronunciation ItemKind = "pronunciation"
	ItemPunctuation   ItemKind = "punctuation"
)

// TranscriptItem is one timed element of a transcript. Punctuation items may
// carry zero offsets.
type TranscriptItem struct {
	Kind    ItemKind `json:"kind"`
	Start   float64  `json:"startSeconds"`
	End     float64  `json:"endSeconds"`
	Content string   `json:"content"`
}

// TranscriptResult is the parsed output of a completed transcription job.
// Item offsets are emitted non-decreasing by the provider, but consumers must
// not rely on that ordering.
type TranscriptResult struct {
	Transcript string           `json:"transcript"`
	Items      []TranscriptItem `json:"items"`
}

// NotificationPayload is the composed notification, constructed once and
// dispatched once.
type NotificationPayload struct {
	Subject         string
	HTMLBody        string
	TextBody        string
	ListenURL       string
	ExpiresAt       time.Time
	DurationSeconds int
	// DurationMeasured is false when no spoken item existed and the duration
	// is a placeholder rather than a measured quantity.
	DurationMeasured bool
}

// VoicemailProcessed is the event published after a successful dispatch.
type VoicemailProcessed struct {
	EventType       string `json:"eventType"`
	CallID          string `json:"callId"`
	InvocationID    string `json:"invocationId"`
	Bucket          string `json:"bucket"`
	Key             string `json:"key"`
	DurationSeconds int    `json:"durationSeconds"`
	MessageID       string `json:"messageId"`
	Timestamp       int64  `json:"timestamp"`
}

// VoicemailFailed is the event published when the pipeline ends in a terminal
// failure state.
type VoicemailFailed struct {
	EventType    string `json:"eventType"`
	CallID       string `json:"callId"`
	InvocationID string `json:"invocationId"`
	Stage        string `json:"stage"`
	Reason       string `json:"reason"`
	Timestamp    int64  `json:"timestamp"`
}
