package pipeline

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/rs/zerolog"

	"voicemail-notify-service/internal/config"
	"voicemail-notify-service/internal/errs"
	"voicemail-notify-service/internal/events"
	"voicemail-notify-service/internal/models"
	"voicemail-notify-service/internal/observability/metrics"
	"voicemail-notify-service/internal/service/contact"
	"voicemail-notify-service/internal/service/duration"
	"voicemail-notify-service/internal/service/locator"
	"voicemail-notify-service/internal/service/notify"
	"voicemail-notify-service/internal/service/transcribe"
	"voicemail-notify-service/internal/signing"
	"voicemail-notify-service/internal/storage"
)

// Result is the structured outcome returned to the invoker. Success carries
// no body beyond Data; failures carry the failing stage and a message. The
// telephone caller never learns of backend failures.
type Result struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Stage   string         `json:"stage,omitempty"`
	State   string         `json:"state"`
	Data    *ProcessedData `json:"data,omitempty"`
}

// ProcessedData describes a successful dispatch.
type ProcessedData struct {
	CallID          string `json:"callId"`
	Key             string `json:"key"`
	URI             string `json:"uri"`
	DurationSeconds int    `json:"durationSeconds"`
	MessageID       string `json:"messageId"`
}

// Stage names recorded in results and metrics.
const (
	stageParse      = "parse"
	stageWait       = "wait"
	stageSearch     = "search"
	stageTranscribe = "transcribe"
	stageCompose    = "compose"
	stageDispatch   = "dispatch"
)

// Controller sequences one pipeline invocation. It performs no retries of
// its own; retry policy is local to the component that owns the uncertainty.
// Controllers are safe for concurrent use: every invocation's state lives on
// the stack of Process.
type Controller struct {
	cfg       *config.Config
	store     storage.ObjectStore
	locator   *locator.Locator
	orch      *transcribe.Orchestrator
	composer  *notify.Composer
	mailer    notify.Mailer
	signer    *signing.Signer
	publisher *events.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a Controller.
func New(
	cfg *config.Config,
	store storage.ObjectStore,
	loc *locator.Locator,
	orch *transcribe.Orchestrator,
	composer *notify.Composer,
	mailer notify.Mailer,
	signer *signing.Signer,
	publisher *events.Publisher,
	log zerolog.Logger,
) *Controller {
	return &Controller{
		cfg:       cfg,
		store:     store,
		locator:   loc,
		orch:      orch,
		composer:  composer,
		mailer:    mailer,
		signer:    signer,
		publisher: publisher,
		metrics:   metrics.DefaultMetrics,
		log:       log.With().Str("component", "pipeline").Logger(),
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Process runs the full pipeline for one trigger event. Stages execute in
// fixed order; any stage failure moves directly to a terminal failure state
// and no notification is dispatched.
func (c *Controller) Process(ctx context.Context, trigger models.TriggerEvent) Result {
	start := c.now()
	machine := NewMachine()

	c.metrics.RecordPipelineStart()
	defer func() {
		c.metrics.RecordPipelineEnd(machine.State().String(), c.now().Sub(start).Seconds())
	}()

	// Parse and validate before any external call.
	event, err := contact.Parse(trigger, start)
	if err != nil {
		return c.fail(ctx, machine, machine.State(), stageParse, models.ContactEvent{CallID: trigger.CallID}, err)
	}
	// Link settings are needed at compose time; checking them here keeps
	// configuration failures ahead of any external call.
	if c.cfg.Link.SigningSecret == "" {
		return c.fail(ctx, machine, machine.State(), stageParse, event, &errs.ConfigurationError{Field: "SIGNING_SECRET"})
	}
	if c.cfg.Link.PublicBaseURL == "" {
		return c.fail(ctx, machine, machine.State(), stageParse, event, &errs.ConfigurationError{Field: "REDIRECT_BASE_URL"})
	}

	log := c.log.With().
		Str("callId", event.CallID).
		Str("invocationId", event.InvocationID).
		Logger()
	log.Info().Str("caller", event.CallerAddress).Str("recipient", event.RecipientEmail).
		Msg("voicemail processing started")

	// Settle wait: a single blocking delay so the upstream capture pipeline
	// can finish uploading.
	machine.Advance(StateWaiting)
	log.Info().Dur("settleWait", c.cfg.Search.SettleWait).Msg("waiting for recording upload to settle")
	waitStart := c.now()
	c.sleep(c.cfg.Search.SettleWait)
	c.metrics.RecordStage(stageWait, c.now().Sub(waitStart).Seconds())

	// Search.
	machine.Advance(StateSearching)
	searchStart := c.now()
	location, err := c.locator.Locate(ctx, event.CallID)
	c.metrics.RecordStage(stageSearch, c.now().Sub(searchStart).Seconds())
	if err != nil {
		c.metrics.RecordSearch(false, probeCount(err))
		return c.fail(ctx, machine, StateRecordingNotFound, stageSearch, event, err)
	}
	c.metrics.RecordSearch(true, 0)
	machine.Advance(StateRecordingFound)

	// Transcribe.
	machine.Advance(StateTranscribing)
	transcribeStart := c.now()
	handle, err := c.orch.Submit(ctx, event.CallID, location)
	if err != nil {
		c.metrics.RecordTranscription(c.now().Sub(transcribeStart).Seconds(), errs.Kind(err))
		return c.fail(ctx, machine, StateTranscribeFailed, stageTranscribe, event, err)
	}
	transcript, err := c.orch.AwaitCompletion(ctx, handle)
	c.metrics.RecordStage(stageTranscribe, c.now().Sub(transcribeStart).Seconds())
	if err != nil {
		c.metrics.RecordTranscription(c.now().Sub(transcribeStart).Seconds(), errs.Kind(err))
		return c.fail(ctx, machine, StateTranscribeFailed, stageTranscribe, event, err)
	}
	c.metrics.RecordTranscription(c.now().Sub(transcribeStart).Seconds(), "")
	machine.Advance(StateTranscribed)

	seconds, measured := duration.Compute(transcript)
	if !measured {
		log.Warn().Msg("no spoken items in transcript, duration is a placeholder")
	}

	// Compose.
	machine.Advance(StateComposing)
	listenURL := c.signer.ListenURL(location.Bucket, location.Key, c.cfg.Link.URLExpiry, c.now())
	payload, err := c.composer.Compose(event, transcript, seconds, measured, listenURL)
	if err != nil {
		return c.fail(ctx, machine, StateDispatchFailed, stageCompose, event, &errs.UnexpectedError{Op: "compose notification", Err: err})
	}

	// Dispatch.
	machine.Advance(StateDispatching)
	mail := notify.OutboundMail{
		From:     c.cfg.Email.Sender,
		To:       event.RecipientEmail,
		Subject:  payload.Subject,
		HTMLBody: payload.HTMLBody,
		TextBody: payload.TextBody,
	}
	if c.cfg.Email.AttachRecording {
		// The link still works without the attachment, so a fetch fault
		// degrades the mail rather than failing the dispatch.
		audio, err := c.store.Fetch(ctx, location.Bucket, location.Key)
		if err != nil {
			log.Warn().Err(err).Str("key", location.Key).Msg("recording fetch failed, sending without attachment")
		} else {
			mail.AttachmentName = path.Base(location.Key)
			mail.Attachment = audio
		}
	}
	messageID, err := c.mailer.Send(ctx, mail)
	c.metrics.RecordDispatch(err)
	if err != nil {
		return c.fail(ctx, machine, StateDispatchFailed, stageDispatch, event,
			&errs.NotificationDispatchError{Recipient: event.RecipientEmail, Err: err})
	}
	machine.Advance(StateDispatched)

	log.Info().Str("messageId", messageID).Int("durationSeconds", seconds).
		Dur("elapsed", c.now().Sub(start)).Msg("voicemail processed")

	c.publishProcessed(ctx, event, location, seconds, messageID)

	return Result{
		Code:    200,
		Message: "voicemail processed successfully",
		State:   machine.State().String(),
		Data: &ProcessedData{
			CallID:          event.CallID,
			Key:             location.Key,
			URI:             location.URI(),
			DurationSeconds: seconds,
			MessageID:       messageID,
		},
	}
}

// fail moves the machine to the terminal failure state for the stage and
// maps the error kind to a result descriptor. Errors are not reclassified.
func (c *Controller) fail(ctx context.Context, machine *Machine, terminal State, stage string, event models.ContactEvent, err error) Result {
	if terminal != machine.State() {
		machine.Advance(terminal)
	}

	c.log.Error().Err(err).
		Str("callId", event.CallID).
		Str("stage", stage).
		Str("state", machine.State().String()).
		Str("kind", errs.Kind(err)).
		Msg("voicemail processing failed")

	if event.CallID != "" {
		ev := models.VoicemailFailed{
			EventType:    "voicemail.failed",
			CallID:       event.CallID,
			InvocationID: event.InvocationID,
			Stage:        stage,
			Reason:       err.Error(),
			Timestamp:    c.now().UnixMilli(),
		}
		if perr := c.publisher.PublishFailed(ctx, event.CallID, ev); perr != nil {
			c.log.Error().Err(perr).Str("callId", event.CallID).Msg("failed to publish failure event")
		}
	}

	return Result{
		Code:    errs.Code(err),
		Message: err.Error(),
		Stage:   stage,
		State:   machine.State().String(),
	}
}

func (c *Controller) publishProcessed(ctx context.Context, event models.ContactEvent, location models.RecordingLocation, seconds int, messageID string) {
	ev := models.VoicemailProcessed{
		EventType:       "voicemail.processed",
		CallID:          event.CallID,
		InvocationID:    event.InvocationID,
		Bucket:          location.Bucket,
		Key:             location.Key,
		DurationSeconds: seconds,
		MessageID:       messageID,
		Timestamp:       c.now().UnixMilli(),
	}
	if err := c.publisher.PublishProcessed(ctx, event.CallID, ev); err != nil {
		c.log.Error().Err(err).Str("callId", event.CallID).Msg("failed to publish processed event")
	}
}

// probeCount extracts the probe count from a search failure when available.
func probeCount(err error) int {
	var nf *errs.RecordingNotFoundError
	if errors.As(err, &nf) {
		return nf.Probes
	}
	return 0
}
