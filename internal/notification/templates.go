package notification

import (
	"context"

	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/repositories"
	"github.com/samudra-paket/erp/backend/pkg/logger"
)

// Templates is the admin side of notification templates
type Templates struct {
	repo      repositories.NotificationTemplateRepository
	validator Validator
	log       *logger.Logger
}

func NewTemplates(repo repositories.NotificationTemplateRepository, validator Validator, log *logger.Logger) *Templates {
	return &Templates{repo: repo, validator: validator, log: log}
}

// Create stores a new active template; a taken code fails with models.ErrDuplicateCode.
func (t *Templates) Create(ctx context.Context, input models.CreateTemplateRequest, actorID string) (*models.NotificationTemplate, error) {
	if err := t.validator.Validate(&input); err != nil {
		return nil, err
	}
	tpl := &models.NotificationTemplate{
		Code:            input.Code,
		Name:            input.Name,
		Type:            input.Type,
		Title:           input.Title,
		Message:         input.Message,
		Email:           input.Email,
		SMS:             input.SMS,
		Push:            input.Push,
		DefaultChannels: input.DefaultChannels,
		Priority:        input.Priority,
		Actionable:      input.Actionable,
		ActionURL:       input.ActionURL,
		ExpiryDays:      input.ExpiryDays,
		IsActive:        true,
		CreatedBy:       actorID,
	}
	if err := t.repo.CreateTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	t.log.WithFields(logger.Fields{"code": tpl.Code, "actor": actorID}).Info("notification template created")
	return tpl, nil
}

// Get returns the template whether or not it is active.
func (t *Templates) Get(ctx context.Context, code string) (*models.NotificationTemplate, error) {
	return t.repo.GetTemplateByCode(ctx, code)
}

func (t *Templates) Update(ctx context.Context, code string, input models.UpdateTemplateRequest, actorID string) (*models.NotificationTemplate, error) {
	if err := t.validator.Validate(&input); err != nil {
		return nil, err
	}
	tpl, err := t.repo.GetTemplateByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		tpl.Name = *input.Name
	}
	if input.Title != nil {
		tpl.Title = *input.Title
	}
	if input.Message != nil {
		tpl.Message = *input.Message
	}
	if input.Email != nil {
		tpl.Email = *input.Email
	}
	if input.SMS != nil {
		tpl.SMS = *input.SMS
	}
	if input.Push != nil {
		tpl.Push = *input.Push
	}
	if len(input.DefaultChannels) > 0 {
		tpl.DefaultChannels = input.DefaultChannels
	}
	if input.Priority != nil {
		tpl.Priority = *input.Priority
	}
	if input.Actionable != nil {
		tpl.Actionable = *input.Actionable
	}
	if input.ActionURL != nil {
		tpl.ActionURL = *input.ActionURL
	}
	if input.ExpiryDays != nil {
		tpl.ExpiryDays = *input.ExpiryDays
	}
	if input.IsActive != nil {
		tpl.IsActive = *input.IsActive
	}
	tpl.UpdatedBy = actorID

	if err := t.repo.SaveTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	t.log.WithFields(logger.Fields{"code": tpl.Code, "actor": actorID}).Info("notification template updated")
	return tpl, nil
}
