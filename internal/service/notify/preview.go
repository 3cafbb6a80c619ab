package notify

import (
	"strings"
	"unicode"

	"voicemail-notify-service/internal/models"
)

// BuildPreview assembles the transcript excerpt shown in the notification.
// Spoken items are joined with spaces and punctuation items are stitched onto
// the preceding word. When no timed items exist the full transcript text is
// used. The excerpt is whitespace-normalized and capped at limit runes.
func BuildPreview(result models.TranscriptResult, limit int) string {
	var words []string
	for _, item := range result.Items {
		content := strings.TrimSpace(item.Content)
		if content == "" {
			continue
		}
		switch item.Kind {
		case models.ItemPunctuation:
			if len(words) > 0 {
				words[len(words)-1] += content
			} else {
				words = append(words, content)
			}
		default:
			words = append(words, content)
		}
	}

	text := strings.Join(words, " ")
	if text == "" {
		text = result.Transcript
	}
	text = normalizeWhitespace(text)

	if limit > 0 {
		runes := []rune(text)
		if len(runes) > limit {
			text = strings.TrimSpace(string(runes[:limit]))
		}
	}
	return text
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
