// Package mock provides a mock transcription provider for local development
// and tests. Jobs complete after a configurable number of status polls.
package mock

import (
	"context"
	"sync"

	"voicemail-notify-service/internal/models"
	"voicemail-notify-service/internal/service/transcribe"
)

// DefaultResult is the transcript returned when none is scripted.
var DefaultResult = models.TranscriptResult{
	Transcript: "Hi, this is a test voicemail. Please call me back when you can.",
	Items: []models.TranscriptItem{
		{Kind: models.ItemPronunciation, Start: 0.0, End: 0.4, Content: "Hi"},
		{Kind: models.ItemPunctuation, Content: ","},
		{Kind: models.ItemPronunciation, Start: 0.5, End: 0.8, Content: "this"},
		{Kind: models.ItemPronunciation, Start: 0.8, End: 1.0, Content: "is"},
		{Kind: models.ItemPronunciation, Start: 1.0, End: 1.2, Content: "a"},
		{Kind: models.ItemPronunciation, Start: 1.2, End: 1.6, Content: "test"},
		{Kind: models.ItemPronunciation, Start: 1.6, End: 2.3, Content: "voicemail"},
		{Kind: models.ItemPunctuation, Content: "."},
		{Kind: models.ItemPronunciation, Start: 2.5, End: 2.9, Content: "Please"},
		{Kind: models.ItemPronunciation, Start: 2.9, End: 3.2, Content: "call"},
		{Kind: models.ItemPronunciation, Start: 3.2, End: 3.4, Content: "me"},
		{Kind: models.ItemPronunciation, Start: 3.4, End: 3.8, Content: "back"},
		{Kind: models.ItemPronunciation, Start: 3.9, End: 4.2, Content: "when"},
		{Kind: models.ItemPronunciation, Start: 4.2, End: 4.4, Content: "you"},
		{Kind: models.ItemPronunciation, Start: 4.4, End: 4.7, Content: "can"},
		{Kind: models.ItemPunctuation, Content: "."},
	},
}

type job struct {
	pollsLeft int
	result    models.TranscriptResult
	failWith  string
}

// Provider implements transcribe.Provider with scripted behavior.
// Safe for concurrent use.
type Provider struct {
	mu   sync.Mutex
	jobs map[string]*job

	// PollsUntilDone is how many status polls a job stays IN_PROGRESS for.
	PollsUntilDone int
	// FailWith, when non-empty, makes every job terminate FAILED with this
	// reason.
	FailWith string
	// Result is returned for completed jobs.
	Result models.TranscriptResult
	// NeverComplete keeps every job IN_PROGRESS forever.
	NeverComplete bool
}

// New creates a mock provider whose jobs complete on the first poll.
func New() *Provider {
	return &Provider{
		jobs:   make(map[string]*job),
		Result: DefaultResult,
	}
}

// StartJob registers a scripted job under the requested name.
func (p *Provider) StartJob(_ context.Context, req transcribe.JobRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, taken := p.jobs[req.JobName]; taken {
		return transcribe.ErrJobNameTaken
	}
	p.jobs[req.JobName] = &job{
		pollsLeft: p.PollsUntilDone,
		result:    p.Result,
		failWith:  p.FailWith,
	}
	return nil
}

// JobStatus steps the scripted job toward its terminal status.
func (p *Provider) JobStatus(_ context.Context, jobName string) (transcribe.Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[jobName]
	if !ok {
		return transcribe.Job{}, transcribe.ErrUnknownJob
	}
	if p.NeverComplete {
		return transcribe.Job{Name: jobName, Status: transcribe.StatusInProgress}, nil
	}
	if j.pollsLeft > 0 {
		j.pollsLeft--
		return transcribe.Job{Name: jobName, Status: transcribe.StatusInProgress}, nil
	}
	if j.failWith != "" {
		return transcribe.Job{Name: jobName, Status: transcribe.StatusFailed, FailureReason: j.failWith}, nil
	}
	return transcribe.Job{Name: jobName, Status: transcribe.StatusCompleted, ResultRef: jobName}, nil
}

// FetchResult returns the scripted result.
func (p *Provider) FetchResult(_ context.Context, jb transcribe.Job) (models.TranscriptResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[jb.Name]
	if !ok {
		return models.TranscriptResult{}, transcribe.ErrUnknownJob
	}
	return j.result, nil
}
