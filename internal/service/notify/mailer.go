package notify

import "context"

// OutboundMail is one message for the notification collaborator. Attachment
// is optional; when present AttachmentName carries its file name.
type OutboundMail struct {
	From           string
	To             string
	Subject        string
	HTMLBody       string
	TextBody       string
	AttachmentName string
	Attachment     []byte
}

// Mailer is the boundary to the notification collaborator. Send returns the
// provider-assigned message id. A failed send is reported, not retried.
type Mailer interface {
	Send(ctx context.Context, m OutboundMail) (messageID string, err error)
}
