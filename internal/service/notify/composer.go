// Package notify composes and sends the voicemail email notification.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"voicemail-notify-service/internal/models"
)

// Composer builds the notification payload. Compose is pure: identical
// inputs always yield byte-identical bodies.
type Composer struct {
	previewLimit int
	htmlTmpl     *template.Template
	textTmpl     *texttemplate.Template
}

// NewComposer creates a Composer. previewLimit caps the transcript excerpt in
// runes.
func NewComposer(previewLimit int) *Composer {
	return &Composer{
		previewLimit: previewLimit,
		htmlTmpl:     template.Must(template.New("html").Parse(htmlBody)),
		textTmpl:     texttemplate.Must(texttemplate.New("text").Parse(textBody)),
	}
}

type bodyData struct {
	RecipientName string
	CallerAddress string
	ListenURL     string
	DurationText  string
	Preview       string
}

// Compose builds the subject, HTML body, and plain-text body for the
// notification. It performs no dispatch; sending is the controller's job via
// the mailer collaborator.
func (c *Composer) Compose(
	event models.ContactEvent,
	transcript models.TranscriptResult,
	durationSeconds int,
	durationMeasured bool,
	listenURL string,
) (models.NotificationPayload, error) {
	preview := BuildPreview(transcript, c.previewLimit)
	if preview == "" {
		preview = "No transcription available"
	}

	data := bodyData{
		RecipientName: event.RecipientName,
		CallerAddress: event.CallerAddress,
		ListenURL:     listenURL,
		DurationText:  durationText(durationSeconds, durationMeasured),
		Preview:       preview,
	}

	var html bytes.Buffer
	if err := c.htmlTmpl.Execute(&html, data); err != nil {
		return models.NotificationPayload{}, fmt.Errorf("compose html body: %w", err)
	}
	var text bytes.Buffer
	if err := c.textTmpl.Execute(&text, data); err != nil {
		return models.NotificationPayload{}, fmt.Errorf("compose text body: %w", err)
	}

	return models.NotificationPayload{
		Subject:          fmt.Sprintf("Voicemail message from: %s", event.CallerAddress),
		HTMLBody:         html.String(),
		TextBody:         strings.TrimSpace(text.String()),
		ListenURL:        listenURL,
		DurationSeconds:  durationSeconds,
		DurationMeasured: durationMeasured,
	}, nil
}

// durationText formats the spoken duration, or returns empty when the value
// is a placeholder.
func durationText(seconds int, measured bool) string {
	if !measured || seconds <= 0 {
		return ""
	}
	if seconds >= 60 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%ds", seconds)
}

const htmlBody = `<html>
<head>
<style>
  body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; }
  .container { max-width: 600px; margin: 0 auto; padding: 20px; text-align: left; }
  .header h2 { font-size: 28px; margin: 0 0 15px 0; color: #333; font-weight: bold; }
  .header p { font-size: 18px; margin: 0 0 30px 0; color: #333; }
  .preview { padding: 0 0 0 15px; border-left: 4px solid #0066cc; margin: 20px 0; white-space: pre-wrap; font-size: 16px; }
  .duration { color: #666; font-size: 14px; margin: 10px 0 0 0; }
  h3 { font-size: 20px; margin: 30px 0 20px 0; color: #333; }
  a { color: #0066cc; text-decoration: underline; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h2>Voicemail for: {{.RecipientName}}</h2>
    <p>There is a voicemail from <strong>{{.CallerAddress}}</strong>.</p>
  </div>
  <p><a href="{{.ListenURL}}">Listen to the voicemail.</a></p>
{{- if .DurationText}}
  <p class="duration">Duration: {{.DurationText}}</p>
{{- end}}
  <h3>Voicemail transcription</h3>
  <div class="preview">{{.Preview}}</div>
</div>
</body>
</html>
`

const textBody = `Voicemail for: {{.RecipientName}}

There is a voicemail from {{.CallerAddress}}{{if .DurationText}}
Duration: {{.DurationText}}{{end}}

Voicemail transcription:
{{.Preview}}

Listen to the full recording here:
{{.ListenURL}}
`
