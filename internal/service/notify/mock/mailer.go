// Package mock provides a recording mailer for local development and tests.
package mock

import (
	"context"
	"fmt"
	"sync"

	"voicemail-notify-service/internal/service/notify"
)

// Mailer implements notify.Mailer by recording sends in memory.
// Safe for concurrent use.
type Mailer struct {
	mu   sync.Mutex
	sent []notify.OutboundMail

	// FailWith, when set, makes every Send return this error.
	FailWith error
}

// New creates an empty recording mailer.
func New() *Mailer {
	return &Mailer{}
}

// Send records the message and returns a synthetic message id.
func (m *Mailer) Send(_ context.Context, out notify.OutboundMail) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return "", m.FailWith
	}
	m.sent = append(m.sent, out)
	return fmt.Sprintf("mock-%d", len(m.sent)), nil
}

// Sent returns a copy of the recorded messages.
func (m *Mailer) Sent() []notify.OutboundMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.OutboundMail, len(m.sent))
	copy(out, m.sent)
	return out
}
