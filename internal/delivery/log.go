package delivery

import (
	"context"

	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/pkg/logger"
)

// LogAdapter writes outgoing messages to the log instead of a provider. Used when DELIVERY_MODE=log.
type LogAdapter struct {
	log *logger.Logger
}

func NewLogAdapter(log *logger.Logger) *LogAdapter {
	return &LogAdapter{log: log}
}

func (a *LogAdapter) Send(_ context.Context, channel models.Channel, contact Contact, content models.NotificationContent) (Result, error) {
	if !contact.Has(channel) {
		return Result{}, ErrNoContact
	}
	fields := logger.Fields{"channel": channel}
	switch channel {
	case models.ChannelEmail:
		email := EmailContent(content)
		fields["to"] = contact.Email
		fields["subject"] = email.Subject
	case models.ChannelSMS:
		fields["to"] = contact.Phone
		fields["message"] = SMSContent(content)
	case models.ChannelPush:
		push := PushContent(content)
		fields["tokens"] = len(contact.PushTokens)
		fields["title"] = push.Title
	}
	a.log.WithFields(fields).Info("notification delivery (log mode)")
	return Result{Delivered: true, Metadata: map[string]any{"provider": "log"}}, nil
}
