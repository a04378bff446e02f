package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samudra-paket/erp/backend/internal/delivery"
	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/repositories"
	"github.com/samudra-paket/erp/backend/pkg/logger"
)

// pushTokenMaxAge drops device tokens that have not been used for 30 days.
const pushTokenMaxAge = 30 * 24 * time.Hour

// Dispatcher turns a template and event data into a stored notification and
// fans it out to the external channels the user's preference allows
type Dispatcher struct {
	templates     repositories.NotificationTemplateRepository
	preferences   repositories.NotificationPreferenceRepository
	notifications repositories.NotificationRepository
	adapters      map[models.Channel]delivery.Adapter
	log           *logger.Logger

	Now func() time.Time
}

// NewDispatcher wires the dispatcher with one adapter per external channel.
// Channels without an adapter are recorded as undelivered.
func NewDispatcher(
	templates repositories.NotificationTemplateRepository,
	preferences repositories.NotificationPreferenceRepository,
	notifications repositories.NotificationRepository,
	adapters map[models.Channel]delivery.Adapter,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		templates:     templates,
		preferences:   preferences,
		notifications: notifications,
		adapters:      adapters,
		log:           log,
		Now:           time.Now,
	}
}

// GenerateFromTemplate returns nil, nil when the user's preference suppresses the notification.
func (d *Dispatcher) GenerateFromTemplate(ctx context.Context, templateCode, userID string, data map[string]any, entity models.EntityRef) (*models.Notification, error) {
	tpl, err := d.templates.GetTemplateByCode(ctx, templateCode)
	if err != nil {
		return nil, err
	}
	if !tpl.IsActive {
		return nil, fmt.Errorf("notification template %s is inactive: %w", templateCode, models.ErrNotFound)
	}

	now := d.Now()
	content := GenerateContent(tpl, data, now)

	pref, err := d.preferences.FindOrCreate(ctx, models.DefaultPreference(userID, now))
	if err != nil {
		return nil, err
	}

	decision := ShouldDeliver(pref, Candidate{Type: tpl.Type, Priority: tpl.Priority}, now)
	if !decision.Enabled {
		d.log.WithFields(logger.Fields{
			"template": templateCode,
			"user":     userID,
			"priority": tpl.Priority,
		}).Debug("notification skipped by user preference")
		return nil, nil
	}

	n := &models.Notification{
		Recipient:      userID,
		Type:           tpl.Type,
		TemplateCode:   tpl.Code,
		Title:          content.Title,
		Message:        content.Message,
		Priority:       tpl.Priority,
		Channels:       decision.Channels,
		DeliveryStatus: map[models.Channel]models.ChannelDelivery{},
		Status:         models.NotificationUnread,
		Entity:         entity,
		Data:           data,
		Actionable:     tpl.Actionable,
		ActionURL:      content.ActionURL,
		ExpiresAt:      content.ExpiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, ch := range decision.Channels {
		if ch == models.ChannelInApp {
			at := now
			n.DeliveryStatus[ch] = models.ChannelDelivery{Delivered: true, DeliveredAt: &at}
		}
	}
	if err := d.notifications.CreateNotification(ctx, n); err != nil {
		return nil, err
	}

	contact := contactFor(pref, now)
	for _, ch := range decision.Channels {
		if ch == models.ChannelInApp {
			continue
		}
		status := d.deliver(ctx, ch, contact, content)
		n.DeliveryStatus[ch] = status
		if err := d.notifications.SetDeliveryStatus(ctx, n.ID, ch, status); err != nil {
			d.log.WithFields(logger.Fields{
				"notification": n.ID.Hex(),
				"channel":      ch,
				"error":        err.Error(),
			}).Error("failed to record delivery status")
		}
	}

	d.log.WithFields(logger.Fields{
		"notification": n.ID.Hex(),
		"template":     tpl.Code,
		"user":         userID,
		"channels":     decision.Channels,
	}).Info("notification generated")
	return n, nil
}

// deliver never fails: provider errors become an undelivered status.
func (d *Dispatcher) deliver(ctx context.Context, ch models.Channel, contact delivery.Contact, content models.NotificationContent) models.ChannelDelivery {
	adapter, ok := d.adapters[ch]
	if !ok {
		return models.ChannelDelivery{Error: "no delivery adapter configured"}
	}
	if !contact.Has(ch) {
		return models.ChannelDelivery{Error: delivery.ErrNoContact.Error()}
	}

	res, err := adapter.Send(ctx, ch, contact, content)
	if err != nil {
		depErr := &models.DependencyError{Channel: ch, Err: err}
		d.log.WithFields(logger.Fields{"channel": ch, "error": err.Error()}).Warn(depErr.Error())
		status := models.ChannelDelivery{Metadata: res.Metadata, Error: depErr.Error()}
		if errors.Is(err, delivery.ErrNoContact) {
			status.Error = err.Error()
		}
		return status
	}

	status := models.ChannelDelivery{Delivered: res.Delivered, Metadata: res.Metadata}
	if res.Delivered {
		at := d.Now()
		status.DeliveredAt = &at
	}
	return status
}

// contactFor keeps only push tokens used within pushTokenMaxAge of now.
func contactFor(pref *models.NotificationPreference, now time.Time) delivery.Contact {
	c := delivery.Contact{
		Email: pref.ContactInfo.Email,
		Phone: pref.ContactInfo.Phone,
	}
	for _, t := range pref.ContactInfo.PushTokens {
		if now.Sub(t.LastUsed) <= pushTokenMaxAge {
			c.PushTokens = append(c.PushTokens, t.Token)
		}
	}
	return c
}
