package locator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"voicemail-notify-service/internal/config"
	"voicemail-notify-service/internal/errs"
	"voicemail-notify-service/internal/models"
	"voicemail-notify-service/internal/storage/memory"
)

func testStorageConfig() config.StorageConfig {
	return config.StorageConfig{
		BasePath:     "test-bucket/recordings",
		RecordingDir: "ivr",
		RecordingExt: "wav",
	}
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		RetryBackoff:     time.Millisecond,
		Attempts:         2,
		MaxRadiusMinutes: 5,
	}
}

// countingStore wraps Exists with a probe counter and an optional success
// threshold: Exists reports true once succeedAfter probes have been made.
type countingStore struct {
	mu           sync.Mutex
	probes       int
	succeedAfter int // 0 means never succeed
	failWith     error
}

func (s *countingStore) Exists(_ context.Context, _, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return false, s.failWith
	}
	s.probes++
	return s.succeedAfter > 0 && s.probes >= s.succeedAfter, nil
}

func (s *countingStore) Fetch(_ context.Context, _, _ string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *countingStore) SignedURL(_, _ string, _ time.Duration) (string, error) {
	return "", errors.New("not implemented")
}

func TestLocate_FoundOnFirstProbe(t *testing.T) {
	store := memory.New()
	storeCfg := testStorageConfig()
	loc := New(store, storeCfg, testSearchConfig(), zerolog.Nop())

	ref := time.Date(2026, 3, 15, 10, 30, 12, 0, time.UTC)
	loc.now = func() time.Time { return ref }

	keyFor := NewKeyBuilder(storeCfg.Prefix(), storeCfg.RecordingDir, "call-1", storeCfg.RecordingExt)
	wantKey := keyFor(ref.Truncate(time.Minute))
	store.Put("test-bucket", wantKey, []byte("audio"))

	got, err := loc.Locate(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Bucket != "test-bucket" {
		t.Errorf("expected bucket test-bucket, got %s", got.Bucket)
	}
	if got.Key != wantKey {
		t.Errorf("expected key %q, got %q", wantKey, got.Key)
	}
	if got.OffsetMinutes != 0 {
		t.Errorf("expected offset 0, got %d", got.OffsetMinutes)
	}
}

func TestLocate_FoundAtOffset(t *testing.T) {
	store := memory.New()
	storeCfg := testStorageConfig()
	loc := New(store, storeCfg, testSearchConfig(), zerolog.Nop())

	ref := time.Date(2026, 3, 15, 10, 30, 12, 0, time.UTC)
	loc.now = func() time.Time { return ref }

	// Seed at -2 and +3 minutes. The closer candidate must win.
	keyFor := NewKeyBuilder(storeCfg.Prefix(), storeCfg.RecordingDir, "call-1", storeCfg.RecordingExt)
	base := ref.Truncate(time.Minute)
	store.Put("test-bucket", keyFor(base.Add(-2*time.Minute)), []byte("a"))
	store.Put("test-bucket", keyFor(base.Add(3*time.Minute)), []byte("b"))

	got, err := loc.Locate(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OffsetMinutes != -2 {
		t.Errorf("expected offset -2, got %d", got.OffsetMinutes)
	}
}

func TestLocate_ExhaustedReturnsNotFound(t *testing.T) {
	store := &countingStore{}
	loc := New(store, testStorageConfig(), testSearchConfig(), zerolog.Nop())
	loc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 30, 12, 0, time.UTC) }

	_, err := loc.Locate(context.Background(), "call-1")

	var nf *errs.RecordingNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected RecordingNotFoundError, got %v", err)
	}
	if nf.CallID != "call-1" {
		t.Errorf("expected call id call-1, got %s", nf.CallID)
	}
	// Two attempts, each probing the 11 distinct keys of the widest radius.
	if nf.Probes != 22 {
		t.Errorf("expected 22 probes, got %d", nf.Probes)
	}
	if nf.Probes > 30 {
		t.Errorf("probe bound exceeded: %d", nf.Probes)
	}
}

func TestLocate_SecondAttemptSucceeds(t *testing.T) {
	// First attempt makes 11 probes and misses; the 12th probe (second
	// attempt) hits.
	store := &countingStore{succeedAfter: 12}
	loc := New(store, testStorageConfig(), testSearchConfig(), zerolog.Nop())
	loc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 30, 12, 0, time.UTC) }

	got, err := loc.Locate(context.Background(), "call-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Key == "" {
		t.Error("expected a resolved key")
	}
	if store.probes != 12 {
		t.Errorf("expected 12 probes, got %d", store.probes)
	}
}

func TestLocate_StorageFaultIsPermanent(t *testing.T) {
	fault := errors.New("connection refused")
	store := &countingStore{failWith: fault}
	loc := New(store, testStorageConfig(), testSearchConfig(), zerolog.Nop())

	_, err := loc.Locate(context.Background(), "call-1")

	var ue *errs.UnexpectedError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnexpectedError, got %v", err)
	}
	if !errors.Is(err, fault) {
		t.Errorf("expected wrapped storage fault, got %v", err)
	}
}

func TestLocate_SingleAttemptConfig(t *testing.T) {
	store := &countingStore{}
	searchCfg := testSearchConfig()
	searchCfg.Attempts = 1
	loc := New(store, testStorageConfig(), searchCfg, zerolog.Nop())
	loc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 30, 12, 0, time.UTC) }

	_, err := loc.Locate(context.Background(), "call-1")

	var nf *errs.RecordingNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected RecordingNotFoundError, got %v", err)
	}
	if nf.Probes != 11 {
		t.Errorf("expected 11 probes for one attempt, got %d", nf.Probes)
	}
}

func TestLocate_ResultCarriesLocation(t *testing.T) {
	store := memory.New()
	storeCfg := testStorageConfig()
	loc := New(store, storeCfg, testSearchConfig(), zerolog.Nop())

	ref := time.Date(2026, 3, 15, 10, 30, 12, 0, time.UTC)
	loc.now = func() time.Time { return ref }

	keyFor := NewKeyBuilder(storeCfg.Prefix(), storeCfg.RecordingDir, "call-9", storeCfg.RecordingExt)
	store.Put("test-bucket", keyFor(ref.Truncate(time.Minute)), []byte("audio"))

	got, err := loc.Locate(context.Background(), "call-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := models.RecordingLocation{
		Bucket:        "test-bucket",
		Key:           keyFor(ref.Truncate(time.Minute)),
		Timestamp:     ref.Truncate(time.Minute),
		OffsetMinutes: 0,
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
