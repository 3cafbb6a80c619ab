package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"voicemail-notify-service/internal/config"
	"voicemail-notify-service/internal/events"
	"voicemail-notify-service/internal/models"
	"voicemail-notify-service/internal/service/locator"
	"voicemail-notify-service/internal/service/notify"
	notifymock "voicemail-notify-service/internal/service/notify/mock"
	"voicemail-notify-service/internal/service/transcribe"
	transcribemock "voicemail-notify-service/internal/service/transcribe/mock"
	"voicemail-notify-service/internal/signing"
	"voicemail-notify-service/internal/storage"
	"voicemail-notify-service/internal/storage/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			BasePath:     "test-bucket/recordings",
			RecordingDir: "ivr",
			RecordingExt: "wav",
		},
		Search: config.SearchConfig{
			SettleWait:       70 * time.Second,
			RetryBackoff:     time.Millisecond,
			Attempts:         2,
			MaxRadiusMinutes: 1,
		},
		Transcribe: config.TranscribeConfig{
			LanguageCode: "en-US",
			PollInterval: time.Millisecond,
			MaxWait:      time.Second,
		},
		Email: config.EmailConfig{
			Sender:        "voicemail@example.com",
			PreviewLength: 700,
		},
		Link: config.LinkConfig{
			PublicBaseURL: "https://vm.example.com",
			SigningSecret: "secret",
			URLExpiry:     168 * time.Hour,
			ListenWindow:  time.Hour,
		},
	}
}

type rig struct {
	cfg        *config.Config
	store      storage.ObjectStore
	provider   *transcribemock.Provider
	mailer     *notifymock.Mailer
	controller *Controller
}

func newRig(cfg *config.Config, store storage.ObjectStore) *rig {
	provider := transcribemock.New()
	mailer := notifymock.New()
	controller := New(
		cfg,
		store,
		locator.New(store, cfg.Storage, cfg.Search, zerolog.Nop()),
		transcribe.New(provider, cfg.Transcribe, zerolog.Nop()),
		notify.NewComposer(cfg.Email.PreviewLength),
		mailer,
		signing.New(cfg.Link.SigningSecret, cfg.Link.PublicBaseURL),
		events.New(nil),
		zerolog.Nop(),
	)
	// The settle wait is a pure delay; skip it in tests.
	controller.sleep = func(time.Duration) {}

	return &rig{cfg: cfg, store: store, provider: provider, mailer: mailer, controller: controller}
}

// seedRecording puts a recording at the current minute and its neighbors so
// the search succeeds regardless of when within the minute the test runs.
func seedRecording(store *memory.Store, cfg *config.Config, callID string) {
	keyFor := locator.NewKeyBuilder(cfg.Storage.Prefix(), cfg.Storage.RecordingDir, callID, cfg.Storage.RecordingExt)
	base := time.Now().UTC().Truncate(time.Minute)
	for d := -1; d <= 1; d++ {
		store.Put(cfg.Storage.Bucket(), keyFor(base.Add(time.Duration(d)*time.Minute)), []byte("audio"))
	}
}

func validTrigger() models.TriggerEvent {
	return models.TriggerEvent{
		CallID:        "call-1",
		CallerAddress: "+15551234567",
		Attributes: map[string]string{
			"emailRecipient": "agent@example.com",
			"RecipientName":  "Alex",
		},
	}
}

// failingStore counts probes and never finds anything.
type failingStore struct {
	mu     sync.Mutex
	probes int
}

func (s *failingStore) Exists(_ context.Context, _, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes++
	return false, nil
}

func (s *failingStore) Fetch(_ context.Context, _, _ string) ([]byte, error) {
	return nil, storage.ErrObjectNotFound
}

func (s *failingStore) SignedURL(_, _ string, _ time.Duration) (string, error) {
	return "", storage.ErrObjectNotFound
}

func TestProcess_Success(t *testing.T) {
	cfg := testConfig()
	store := memory.New()
	seedRecording(store, cfg, "call-1")
	r := newRig(cfg, store)

	result := r.controller.Process(context.Background(), validTrigger())

	if result.Code != 200 {
		t.Fatalf("expected 200, got %d (%s)", result.Code, result.Message)
	}
	if result.State != "DISPATCHED" {
		t.Errorf("expected DISPATCHED, got %s", result.State)
	}
	if result.Data == nil {
		t.Fatal("expected result data")
	}
	if result.Data.CallID != "call-1" {
		t.Errorf("expected call-1, got %s", result.Data.CallID)
	}
	if !strings.HasPrefix(result.Data.URI, "gs://test-bucket/") {
		t.Errorf("unexpected uri %s", result.Data.URI)
	}
	// The mock transcript's last spoken word ends at 4.7s.
	if result.Data.DurationSeconds != 4 {
		t.Errorf("expected 4 second duration, got %d", result.Data.DurationSeconds)
	}

	sent := r.mailer.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 dispatched mail, got %d", len(sent))
	}
	if sent[0].To != "agent@example.com" {
		t.Errorf("expected recipient agent@example.com, got %s", sent[0].To)
	}
	if sent[0].From != "voicemail@example.com" {
		t.Errorf("expected sender voicemail@example.com, got %s", sent[0].From)
	}
	if sent[0].Subject != "Voicemail message from: +15551234567" {
		t.Errorf("unexpected subject %q", sent[0].Subject)
	}
	if !strings.Contains(sent[0].HTMLBody, "/voicemail/test-bucket/") {
		t.Error("expected a signed listen link in the html body")
	}
}

func TestProcess_MissingRecipientEmail(t *testing.T) {
	store := &failingStore{}
	r := newRig(testConfig(), store)

	trigger := validTrigger()
	delete(trigger.Attributes, "emailRecipient")

	result := r.controller.Process(context.Background(), trigger)

	if result.Code != 400 {
		t.Errorf("expected 400, got %d", result.Code)
	}
	if result.Stage != "parse" {
		t.Errorf("expected stage parse, got %s", result.Stage)
	}
	// Validation failures must precede any storage call.
	if store.probes != 0 {
		t.Errorf("expected no storage probes, got %d", store.probes)
	}
	if len(r.mailer.Sent()) != 0 {
		t.Error("expected no dispatch")
	}
}

func TestProcess_MissingCallID(t *testing.T) {
	r := newRig(testConfig(), &failingStore{})

	trigger := validTrigger()
	trigger.CallID = ""

	result := r.controller.Process(context.Background(), trigger)
	if result.Code != 400 {
		t.Errorf("expected 400, got %d", result.Code)
	}
}

func TestProcess_MissingSigningSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Link.SigningSecret = ""
	store := &failingStore{}
	r := newRig(cfg, store)

	result := r.controller.Process(context.Background(), validTrigger())

	if result.Code != 400 {
		t.Errorf("expected 400, got %d", result.Code)
	}
	if store.probes != 0 {
		t.Errorf("expected no storage probes before config check, got %d", store.probes)
	}
}

func TestProcess_RecordingNotFound(t *testing.T) {
	store := &failingStore{}
	r := newRig(testConfig(), store)

	result := r.controller.Process(context.Background(), validTrigger())

	if result.Code != 404 {
		t.Errorf("expected 404, got %d", result.Code)
	}
	if result.State != "RECORDING_NOT_FOUND" {
		t.Errorf("expected RECORDING_NOT_FOUND, got %s", result.State)
	}
	if result.Stage != "search" {
		t.Errorf("expected stage search, got %s", result.Stage)
	}
	if store.probes == 0 || store.probes > 30 {
		t.Errorf("expected bounded probing, got %d", store.probes)
	}
	if len(r.mailer.Sent()) != 0 {
		t.Error("expected no dispatch")
	}
}

func TestProcess_TranscriptionFailure(t *testing.T) {
	cfg := testConfig()
	store := memory.New()
	seedRecording(store, cfg, "call-1")
	r := newRig(cfg, store)
	r.provider.FailWith = "media format not supported"

	result := r.controller.Process(context.Background(), validTrigger())

	if result.Code != 502 {
		t.Errorf("expected 502, got %d", result.Code)
	}
	if result.State != "TRANSCRIBE_FAILED" {
		t.Errorf("expected TRANSCRIBE_FAILED, got %s", result.State)
	}
	if len(r.mailer.Sent()) != 0 {
		t.Error("expected no dispatch after transcription failure")
	}
}

func TestProcess_TranscriptionTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Transcribe.MaxWait = 5 * time.Millisecond
	store := memory.New()
	seedRecording(store, cfg, "call-1")
	r := newRig(cfg, store)
	r.provider.NeverComplete = true

	result := r.controller.Process(context.Background(), validTrigger())

	if result.Code != 504 {
		t.Errorf("expected 504, got %d", result.Code)
	}
	if result.State != "TRANSCRIBE_FAILED" {
		t.Errorf("expected TRANSCRIBE_FAILED, got %s", result.State)
	}
	if len(r.mailer.Sent()) != 0 {
		t.Error("expected no dispatch after timeout")
	}
}

func TestProcess_DispatchFailure(t *testing.T) {
	cfg := testConfig()
	store := memory.New()
	seedRecording(store, cfg, "call-1")
	r := newRig(cfg, store)
	r.mailer.FailWith = context.DeadlineExceeded

	result := r.controller.Process(context.Background(), validTrigger())

	if result.Code != 502 {
		t.Errorf("expected 502, got %d", result.Code)
	}
	if result.State != "DISPATCH_FAILED" {
		t.Errorf("expected DISPATCH_FAILED, got %s", result.State)
	}
}

func TestProcess_AttachRecording(t *testing.T) {
	cfg := testConfig()
	cfg.Email.AttachRecording = true
	store := memory.New()
	seedRecording(store, cfg, "call-1")
	r := newRig(cfg, store)

	result := r.controller.Process(context.Background(), validTrigger())
	if result.Code != 200 {
		t.Fatalf("expected 200, got %d (%s)", result.Code, result.Message)
	}

	sent := r.mailer.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 dispatched mail, got %d", len(sent))
	}
	if string(sent[0].Attachment) != "audio" {
		t.Errorf("expected recording attachment, got %q", sent[0].Attachment)
	}
	if !strings.HasSuffix(sent[0].AttachmentName, ".wav") {
		t.Errorf("expected wav attachment name, got %q", sent[0].AttachmentName)
	}
}

func TestProcess_AttachmentOffByDefault(t *testing.T) {
	cfg := testConfig()
	store := memory.New()
	seedRecording(store, cfg, "call-1")
	r := newRig(cfg, store)

	result := r.controller.Process(context.Background(), validTrigger())
	if result.Code != 200 {
		t.Fatalf("expected 200, got %d (%s)", result.Code, result.Message)
	}
	if sent := r.mailer.Sent(); len(sent[0].Attachment) != 0 {
		t.Error("expected no attachment without the config flag")
	}
}

func TestProcess_UnmeasuredDurationStillDispatches(t *testing.T) {
	cfg := testConfig()
	store := memory.New()
	seedRecording(store, cfg, "call-1")
	r := newRig(cfg, store)
	r.provider.Result = models.TranscriptResult{Transcript: "untimed transcript"}

	result := r.controller.Process(context.Background(), validTrigger())

	if result.Code != 200 {
		t.Fatalf("expected 200, got %d (%s)", result.Code, result.Message)
	}
	if result.Data.DurationSeconds != 0 {
		t.Errorf("expected placeholder duration 0, got %d", result.Data.DurationSeconds)
	}
	sent := r.mailer.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 dispatched mail, got %d", len(sent))
	}
	if strings.Contains(sent[0].TextBody, "Duration:") {
		t.Error("expected no duration line for a placeholder duration")
	}
}
