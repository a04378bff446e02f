package notification

import (
	"context"
	"time"

	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/repositories"
	"github.com/samudra-paket/erp/backend/pkg/logger"
)

// Validator is satisfied by validators.CustomValidator.
type Validator interface {
	Validate(i interface{}) error
}

// Preferences reads and edits a user's notification preference, creating it on first access
type Preferences struct {
	repo      repositories.NotificationPreferenceRepository
	validator Validator
	log       *logger.Logger

	Now func() time.Time
}

func NewPreferences(repo repositories.NotificationPreferenceRepository, validator Validator, log *logger.Logger) *Preferences {
	return &Preferences{repo: repo, validator: validator, log: log, Now: time.Now}
}

func (p *Preferences) Get(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	return p.repo.FindOrCreate(ctx, models.DefaultPreference(userID, p.Now()))
}

// Update applies a partial update. Only known notification types may be changed.
func (p *Preferences) Update(ctx context.Context, userID string, input models.UpdatePreferenceRequest) (*models.NotificationPreference, error) {
	if err := p.validator.Validate(&input); err != nil {
		return nil, err
	}
	pref, err := p.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(models.NotificationTypes))
	for _, t := range models.NotificationTypes {
		known[t] = true
	}
	if pref.NotificationTypes == nil {
		pref.NotificationTypes = map[string]models.TypePreference{}
	}
	for name, upd := range input.NotificationTypes {
		if !known[name] {
			return nil, models.NewValidationError("notificationTypes."+name, "unknown notification type")
		}
		tp := pref.NotificationTypes[name]
		if upd.Enabled != nil {
			tp.Enabled = *upd.Enabled
		}
		if upd.Channels != nil {
			tp.Channels = *upd.Channels
		}
		if upd.MinPriority != nil {
			tp.MinPriority = *upd.MinPriority
		}
		pref.NotificationTypes[name] = tp
	}

	if qh := input.QuietHours; qh != nil {
		if qh.Enabled != nil {
			pref.QuietHours.Enabled = *qh.Enabled
		}
		if qh.Start != nil {
			pref.QuietHours.Start = *qh.Start
		}
		if qh.End != nil {
			pref.QuietHours.End = *qh.End
		}
		if qh.Timezone != nil {
			pref.QuietHours.Timezone = *qh.Timezone
		}
		if qh.ExcludeUrgent != nil {
			pref.QuietHours.ExcludeUrgent = *qh.ExcludeUrgent
		}
	}

	if ci := input.ContactInfo; ci != nil {
		if ci.Email != nil {
			pref.ContactInfo.Email = *ci.Email
		}
		if ci.Phone != nil {
			pref.ContactInfo.Phone = *ci.Phone
		}
	}

	if err := p.repo.SavePreference(ctx, pref); err != nil {
		return nil, err
	}
	p.log.WithFields(logger.Fields{"user": userID}).Info("notification preference updated")
	return pref, nil
}

// RegisterPushToken adds a device token, or refreshes lastUsed when it is already known.
func (p *Preferences) RegisterPushToken(ctx context.Context, userID string, input models.RegisterPushTokenRequest) (*models.NotificationPreference, error) {
	if err := p.validator.Validate(&input); err != nil {
		return nil, err
	}
	pref, err := p.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := p.Now()
	found := false
	for i := range pref.ContactInfo.PushTokens {
		if pref.ContactInfo.PushTokens[i].Token == input.Token {
			pref.ContactInfo.PushTokens[i].LastUsed = now
			if input.Device != "" {
				pref.ContactInfo.PushTokens[i].Device = input.Device
			}
			found = true
			break
		}
	}
	if !found {
		pref.ContactInfo.PushTokens = append(pref.ContactInfo.PushTokens, models.PushToken{
			Token:    input.Token,
			Device:   input.Device,
			LastUsed: now,
		})
	}

	if err := p.repo.SavePreference(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}
