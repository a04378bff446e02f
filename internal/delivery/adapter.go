package delivery

import (
	"context"
	"errors"

	"github.com/samudra-paket/erp/backend/internal/models"
)

// ErrNoContact is returned when the recipient has no address for the channel.
var ErrNoContact = errors.New("no contact address for channel")

// Contact is the recipient addressing data a channel needs.
type Contact struct {
	Email      string
	Phone      string
	PushTokens []string
}

// Has reports whether c carries an address usable on channel.
func (c Contact) Has(channel models.Channel) bool {
	switch channel {
	case models.ChannelEmail:
		return c.Email != ""
	case models.ChannelSMS:
		return c.Phone != ""
	case models.ChannelPush:
		return len(c.PushTokens) > 0
	}
	return false
}

// Result is a provider's answer for one send.
type Result struct {
	Delivered bool
	Metadata  map[string]any
}

// Adapter sends compiled notification content over one external channel
type Adapter interface {
	Send(ctx context.Context, channel models.Channel, contact Contact, content models.NotificationContent) (Result, error)
}

// EmailContent falls back to the notification title and message when the template has no email body.
func EmailContent(content models.NotificationContent) models.EmailTemplate {
	out := models.EmailTemplate{Subject: content.Title, Body: content.Message}
	if content.Email != nil {
		if content.Email.Subject != "" {
			out.Subject = content.Email.Subject
		}
		if content.Email.Body != "" {
			out.Body = content.Email.Body
		}
	}
	return out
}

func SMSContent(content models.NotificationContent) string {
	if content.SMS != "" {
		return content.SMS
	}
	return content.Message
}

func PushContent(content models.NotificationContent) models.PushTemplate {
	out := models.PushTemplate{Title: content.Title, Body: content.Message}
	if content.Push != nil {
		if content.Push.Title != "" {
			out.Title = content.Push.Title
		}
		if content.Push.Body != "" {
			out.Body = content.Push.Body
		}
	}
	return out
}
