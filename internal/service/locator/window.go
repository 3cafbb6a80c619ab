// Package locator finds an uploaded recording in object storage despite the
// upload lagging call completion by an unpredictable amount.
package locator

import (
	"fmt"
	"time"
)

// Candidate is one minute-aligned timestamp inside a search window, with the
// object key derived from it.
type Candidate struct {
	Timestamp     time.Time
	OffsetMinutes int
	Key           string
}

// Window enumerates the 2r+1 minute-aligned candidates around a reference
// instant for radius r, ordered by absolute distance to the reference
// (reference itself first), ties broken toward the earlier timestamp.
// Object timestamps reflect upload completion, so the reference should be
// the search time, not the call start.
func Window(ref time.Time, radiusMinutes int, key KeyBuilder) []Candidate {
	ref = ref.UTC().Truncate(time.Minute)
	out := make([]Candidate, 0, 2*radiusMinutes+1)
	out = append(out, candidateAt(ref, 0, key))
	for d := 1; d <= radiusMinutes; d++ {
		out = append(out, candidateAt(ref, -d, key))
		out = append(out, candidateAt(ref, d, key))
	}
	return out
}

func candidateAt(ref time.Time, offsetMinutes int, key KeyBuilder) Candidate {
	ts := ref.Add(time.Duration(offsetMinutes) * time.Minute)
	return Candidate{
		Timestamp:     ts,
		OffsetMinutes: offsetMinutes,
		Key:           key(ts),
	}
}

// KeyBuilder derives an object key from a candidate timestamp.
type KeyBuilder func(ts time.Time) string

// NewKeyBuilder returns a KeyBuilder for the store's key convention:
// {prefix}/{dir}/{yyyy}/{mm}/{dd}/{callId}_{yyyyMMddTHH:mm}_UTC.{ext}
// with date components derived from the candidate (upload) timestamp in UTC.
func NewKeyBuilder(prefix, dir, callID, ext string) KeyBuilder {
	return func(ts time.Time) string {
		ts = ts.UTC()
		datePath := ts.Format("2006/01/02")
		stamp := ts.Format("20060102T15:04")
		filename := fmt.Sprintf("%s_%s_UTC.%s", callID, stamp, ext)
		if prefix != "" {
			return fmt.Sprintf("%s/%s/%s/%s", prefix, dir, datePath, filename)
		}
		return fmt.Sprintf("%s/%s/%s", dir, datePath, filename)
	}
}
