package transcribe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"voicemail-notify-service/internal/config"
	"voicemail-notify-service/internal/errs"
	"voicemail-notify-service/internal/models"
)

// Orchestrator owns one polling loop against the transcription collaborator:
// submit a job, poll to a terminal status within a bound, fetch and parse the
// result.
type Orchestrator struct {
	provider Provider
	cfg      config.TranscribeConfig
	now      func() time.Time
	sleep    func(time.Duration)
	log      zerolog.Logger
}

// New creates an Orchestrator.
func New(provider Provider, cfg config.TranscribeConfig, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		cfg:      cfg,
		now:      time.Now,
		sleep:    time.Sleep,
		log:      log.With().Str("component", "transcribe").Logger(),
	}
}

// Submit starts a transcription job for the located recording and returns
// its handle. The job name embeds both the call identifier and the
// submission timestamp so concurrent invocations and retries of the same
// call never collide on job identity. A name collision at the provider is
// retried once with a fresh timestamp suffix.
func (o *Orchestrator) Submit(ctx context.Context, callID string, loc models.RecordingLocation) (Job, error) {
	uri := loc.URI()
	req := JobRequest{
		JobName:      jobName(callID, o.now()),
		MediaURI:     uri,
		MediaFormat:  FormatHint(uri),
		LanguageCode: o.cfg.LanguageCode,
	}

	o.log.Info().Str("callId", callID).Str("jobName", req.JobName).Str("mediaUri", uri).
		Msg("starting transcription job")

	err := o.provider.StartJob(ctx, req)
	if errors.Is(err, ErrJobNameTaken) {
		req.JobName = fmt.Sprintf("%s-%d", req.JobName, o.now().UnixNano())
		o.log.Warn().Str("jobName", req.JobName).Msg("job name collision, retrying with fresh name")
		err = o.provider.StartJob(ctx, req)
	}
	if err != nil {
		return Job{}, &errs.TranscriptionFailedError{JobName: req.JobName, Reason: err.Error()}
	}
	return Job{Name: req.JobName, Status: StatusInProgress}, nil
}

// AwaitCompletion polls the job status until it reaches a terminal state or
// the total wait exceeds the configured bound, then fetches and parses the
// result. An empty or malformed result payload is a TranscriptionFailedError,
// never a silent empty transcript.
func (o *Orchestrator) AwaitCompletion(ctx context.Context, handle Job) (models.TranscriptResult, error) {
	start := o.now()
	polls := 0

	for {
		job, err := o.provider.JobStatus(ctx, handle.Name)
		if err != nil {
			return models.TranscriptResult{}, &errs.UnexpectedError{Op: "transcription status poll", Err: err}
		}
		polls++

		switch job.Status {
		case StatusCompleted:
			o.log.Info().Str("jobName", job.Name).Int("polls", polls).
				Dur("elapsed", o.now().Sub(start)).Msg("transcription completed")
			return o.fetch(ctx, job)

		case StatusFailed:
			reason := job.FailureReason
			if reason == "" {
				reason = "provider reported failure without a reason"
			}
			return models.TranscriptResult{}, &errs.TranscriptionFailedError{JobName: job.Name, Reason: reason}
		}

		waited := o.now().Sub(start)
		if waited+o.cfg.PollInterval > o.cfg.MaxWait {
			return models.TranscriptResult{}, &errs.TranscriptionTimeoutError{JobName: handle.Name, Waited: waited}
		}
		o.sleep(o.cfg.PollInterval)
	}
}

func (o *Orchestrator) fetch(ctx context.Context, job Job) (models.TranscriptResult, error) {
	result, err := o.provider.FetchResult(ctx, job)
	if err != nil {
		return models.TranscriptResult{}, &errs.TranscriptionFailedError{JobName: job.Name, Reason: err.Error()}
	}
	if result.Transcript == "" && len(result.Items) == 0 {
		return models.TranscriptResult{}, &errs.TranscriptionFailedError{JobName: job.Name, Reason: "empty result payload"}
	}
	return result, nil
}

// jobName derives a deterministic, collision-resistant job name.
func jobName(callID string, at time.Time) string {
	return fmt.Sprintf("voicemail-%s-%d", callID, at.Unix())
}
