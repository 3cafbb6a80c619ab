// Package google provides a Google Cloud Speech-to-Text transcription
// provider backed by long-running recognition jobs.
package google

import (
	"context"
	"fmt"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"voicemail-notify-service/internal/models"
	"voicemail-notify-service/internal/service/transcribe"
)

// Provider implements transcribe.Provider using Cloud Speech
// LongRunningRecognize. Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
//
// The provider assigns its own operation names, so the submitted job name is
// mapped to the operation name for the lifetime of the job.
type Provider struct {
	client *speech.Client

	mu  sync.Mutex
	ops map[string]string // job name -> operation name
}

// New creates a new Google transcription provider.
func New(ctx context.Context) (*Provider, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech: create client: %w", err)
	}
	return &Provider{client: c, ops: make(map[string]string)}, nil
}

// StartJob submits a long-running recognition job for the media URI.
func (p *Provider) StartJob(ctx context.Context, req transcribe.JobRequest) error {
	p.mu.Lock()
	_, taken := p.ops[req.JobName]
	p.mu.Unlock()
	if taken {
		return transcribe.ErrJobNameTaken
	}

	op, err := p.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              encodingFor(req.MediaFormat),
			LanguageCode:          req.LanguageCode,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: req.MediaURI},
		},
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return transcribe.ErrJobNameTaken
		}
		return fmt.Errorf("speech: start job: %w", err)
	}

	p.mu.Lock()
	p.ops[req.JobName] = op.Name()
	p.mu.Unlock()
	return nil
}

// JobStatus polls the operation behind the job name.
func (p *Provider) JobStatus(ctx context.Context, jobName string) (transcribe.Job, error) {
	opName, err := p.opName(jobName)
	if err != nil {
		return transcribe.Job{}, err
	}

	op := p.client.LongRunningRecognizeOperation(opName)
	resp, err := op.Poll(ctx)
	if err != nil {
		// A poll transport fault and a failed operation both surface here;
		// a resolvable status means the job itself failed.
		if s, ok := status.FromError(err); ok && s.Code() != codes.Unavailable && s.Code() != codes.DeadlineExceeded {
			return transcribe.Job{
				Name:          jobName,
				Status:        transcribe.StatusFailed,
				FailureReason: s.Message(),
			}, nil
		}
		return transcribe.Job{}, fmt.Errorf("speech: poll %s: %w", jobName, err)
	}

	if resp == nil || !op.Done() {
		return transcribe.Job{Name: jobName, Status: transcribe.StatusInProgress}, nil
	}
	return transcribe.Job{Name: jobName, Status: transcribe.StatusCompleted, ResultRef: opName}, nil
}

// FetchResult retrieves the completed operation and converts its response.
func (p *Provider) FetchResult(ctx context.Context, job transcribe.Job) (models.TranscriptResult, error) {
	op := p.client.LongRunningRecognizeOperation(job.ResultRef)
	resp, err := op.Wait(ctx)
	if err != nil {
		return models.TranscriptResult{}, fmt.Errorf("speech: fetch result %s: %w", job.Name, err)
	}

	p.mu.Lock()
	delete(p.ops, job.Name)
	p.mu.Unlock()

	return convert(resp), nil
}

func (p *Provider) opName(jobName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name, ok := p.ops[jobName]
	if !ok {
		return "", fmt.Errorf("speech: unknown job %s", jobName)
	}
	return name, nil
}

// convert flattens a recognition response into the pipeline's transcript
// model. Word timings become pronunciation items; Cloud Speech folds
// punctuation into word content, so no punctuation items are emitted.
func convert(resp *speechpb.LongRunningRecognizeResponse) models.TranscriptResult {
	var (
		parts []string
		items []models.TranscriptItem
	)
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		alt := r.GetAlternatives()[0]
		if t := strings.TrimSpace(alt.GetTranscript()); t != "" {
			parts = append(parts, t)
		}
		for _, w := range alt.GetWords() {
			items = append(items, models.TranscriptItem{
				Kind:    models.ItemPronunciation,
				Start:   w.GetStartTime().AsDuration().Seconds(),
				End:     w.GetEndTime().AsDuration().Seconds(),
				Content: w.GetWord(),
			})
		}
	}
	return models.TranscriptResult{
		Transcript: strings.Join(parts, " "),
		Items:      items,
	}
}

func encodingFor(format string) speechpb.RecognitionConfig_AudioEncoding {
	switch format {
	case "flac":
		return speechpb.RecognitionConfig_FLAC
	case "ogg", "opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "amr":
		return speechpb.RecognitionConfig_AMR
	case "webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		// WAV and other self-describing containers are sniffed by the
		// provider.
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}
