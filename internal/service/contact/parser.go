// Package contact extracts the validated contact event from the raw trigger
// payload.
package contact

import (
	"time"

	"github.com/google/uuid"

	"voicemail-notify-service/internal/errs"
	"voicemail-notify-service/internal/models"
)

// Attribute keys set by the call flow.
const (
	AttrEmailRecipient = "emailRecipient"
	AttrRecipientName  = "RecipientName"
)

// DefaultRecipientName is the neutral greeting used when the call flow did
// not set a display name.
const DefaultRecipientName = "there"

// DefaultCallerAddress is used when the trigger carried no caller address.
const DefaultCallerAddress = "Unknown"

// Parse validates the trigger event and returns the immutable ContactEvent
// for this invocation. Missing required fields (call identifier, recipient
// email) fail with a ConfigurationError naming the absent field; missing
// optional fields default deterministically and never abort the pipeline.
// No side effects.
func Parse(ev models.TriggerEvent, now time.Time) (models.ContactEvent, error) {
	if ev.CallID == "" {
		return models.ContactEvent{}, &errs.ConfigurationError{Field: "callId"}
	}
	email := ev.Attributes[AttrEmailRecipient]
	if email == "" {
		return models.ContactEvent{}, &errs.ConfigurationError{Field: AttrEmailRecipient}
	}

	name := ev.Attributes[AttrRecipientName]
	if name == "" {
		name = DefaultRecipientName
	}
	caller := ev.CallerAddress
	if caller == "" {
		caller = DefaultCallerAddress
	}

	return models.ContactEvent{
		CallID:         ev.CallID,
		CallerAddress:  caller,
		RecipientEmail: email,
		RecipientName:  name,
		InvocationID:   uuid.New().String(),
		ReceivedAt:     now,
	}, nil
}
