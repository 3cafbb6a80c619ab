// Package duration derives the actual spoken duration of a recording from
// transcription output. The system reports speech duration, not recording
// duration, so trailing silence after the last spoken word is excluded.
package duration

import "voicemail-notify-service/internal/models"

// Compute returns the floor of the maximum end offset across all spoken
// (pronunciation) items. Punctuation items are excluded since they may lack a
// meaningful offset. Providers emit items with non-decreasing offsets, but
// that is not assumed: the maximum is taken over all items, not the last.
//
// When no spoken item exists the returned seconds is 0 and measured is
// false, marking the value as a placeholder rather than a measured quantity.
func Compute(result models.TranscriptResult) (seconds int, measured bool) {
	maxEnd := -1.0
	for _, item := range result.Items {
		if item.Kind != models.ItemPronunciation {
			continue
		}
		if item.End > maxEnd {
			maxEnd = item.End
		}
	}
	if maxEnd < 0 {
		return 0, false
	}
	return int(maxEnd), true
}
