package locator

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"voicemail-notify-service/internal/config"
	"voicemail-notify-service/internal/errs"
	"voicemail-notify-service/internal/models"
	"voicemail-notify-service/internal/storage"
)

// errNotYet marks an attempt that exhausted its radius ladder without a hit.
// Retryable, unlike storage faults.
var errNotYet = errors.New("recording not found yet")

// Locator resolves a RecordingLocation for a call identifier. "Not found yet"
// is retryable up to a bound; "still not found after the bound" is a
// terminal, reportable failure.
type Locator struct {
	store   storage.ObjectStore
	storeCf config.StorageConfig
	search  config.SearchConfig
	now     func() time.Time
	log     zerolog.Logger
}

// New creates a Locator.
func New(store storage.ObjectStore, storeCfg config.StorageConfig, searchCfg config.SearchConfig, log zerolog.Logger) *Locator {
	return &Locator{
		store:   store,
		storeCf: storeCfg,
		search:  searchCfg,
		now:     time.Now,
		log:     log.With().Str("component", "locator").Logger(),
	}
}

// Locate searches for the recording object. Each outer attempt walks the
// decreasing radius ladder recentered on the current time; attempts are
// separated by a constant backoff. Returns RecordingNotFoundError with the
// probe count once all attempts are exhausted.
func (l *Locator) Locate(ctx context.Context, callID string) (models.RecordingLocation, error) {
	keyFor := NewKeyBuilder(l.storeCf.Prefix(), l.storeCf.RecordingDir, callID, l.storeCf.RecordingExt)

	var (
		found   models.RecordingLocation
		probes  int
		attempt int
	)

	operation := func() error {
		attempt++
		start := l.now()
		l.log.Info().Str("callId", callID).Int("attempt", attempt).Int("maxAttempts", l.search.Attempts).
			Msg("searching for recording")

		loc, n, err := l.searchOnce(ctx, keyFor)
		probes += n
		if err != nil {
			return backoff.Permanent(&errs.UnexpectedError{Op: "storage existence check", Err: err})
		}
		if loc == nil {
			l.log.Warn().Str("callId", callID).Int("probes", probes).
				Dur("elapsed", l.now().Sub(start)).
				Msg("recording not found, will retry after backoff")
			return errNotYet
		}

		found = *loc
		l.log.Info().Str("callId", callID).Str("key", loc.Key).
			Int("offsetMinutes", loc.OffsetMinutes).Int("probes", probes).
			Msg("recording found")
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(l.search.RetryBackoff), uint64(l.search.Attempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, bo); err != nil {
		if errors.Is(err, errNotYet) {
			return models.RecordingLocation{}, &errs.RecordingNotFoundError{CallID: callID, Probes: probes}
		}
		return models.RecordingLocation{}, err
	}
	return found, nil
}

// searchOnce runs one radius ladder centered on "now". Keys already probed in
// this attempt are skipped, which keeps the attempt within 2r+1 existence
// checks for the widest radius r.
func (l *Locator) searchOnce(ctx context.Context, keyFor KeyBuilder) (*models.RecordingLocation, int, error) {
	now := l.now()
	bucket := l.storeCf.Bucket()
	probed := make(map[string]struct{})
	probes := 0

	for radius := l.search.MaxRadiusMinutes; radius >= 1; radius-- {
		l.log.Debug().Int("radiusMinutes", radius).Msg("searching time window")

		for _, cand := range Window(now, radius, keyFor) {
			if _, seen := probed[cand.Key]; seen {
				continue
			}
			probed[cand.Key] = struct{}{}

			probes++
			ok, err := l.store.Exists(ctx, bucket, cand.Key)
			if err != nil {
				return nil, probes, err
			}
			if ok {
				return &models.RecordingLocation{
					Bucket:        bucket,
					Key:           cand.Key,
					Timestamp:     cand.Timestamp,
					OffsetMinutes: cand.OffsetMinutes,
				}, probes, nil
			}
		}
	}
	return nil, probes, nil
}
