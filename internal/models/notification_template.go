package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmailTemplate struct {
	Subject string `json:"subject" bson:"subject"`
	Body    string `json:"body" bson:"body"`
}

type PushTemplate struct {
	Title string `json:"title" bson:"title"`
	Body  string `json:"body" bson:"body"`
}

// NotificationTemplate is a reusable, admin-editable notification definition keyed by Code
type NotificationTemplate struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code            string             `json:"code" bson:"code"`
	Name            string             `json:"name" bson:"name"`
	Type            string             `json:"type" bson:"type"`
	Title           string             `json:"title" bson:"title"`
	Message         string             `json:"message" bson:"message"`
	Email           EmailTemplate      `json:"email" bson:"email"`
	SMS             string             `json:"sms" bson:"sms"`
	Push            PushTemplate       `json:"push" bson:"push"`
	DefaultChannels []Channel          `json:"defaultChannels" bson:"defaultChannels"`
	Priority        Priority           `json:"priority" bson:"priority"`
	Actionable      bool               `json:"actionable" bson:"actionable"`
	ActionURL       string             `json:"actionUrl,omitempty" bson:"actionUrl,omitempty"`
	ExpiryDays      int                `json:"expiryDays,omitempty" bson:"expiryDays,omitempty"`
	IsActive        bool               `json:"isActive" bson:"isActive"`
	CreatedBy       string             `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	UpdatedBy       string             `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HasChannel reports whether c is one of the template's default channels.
func (t *NotificationTemplate) HasChannel(c Channel) bool {
	for _, dc := range t.DefaultChannels {
		if dc == c {
			return true
		}
	}
	return false
}

// NotificationContent is the compiled, channel-specific output of a template
type NotificationContent struct {
	Title     string
	Message   string
	Email     *EmailTemplate
	SMS       string
	Push      *PushTemplate
	ActionURL string
	ExpiresAt *time.Time
}

type CreateTemplateRequest struct {
	Code            string        `json:"code" validate:"required,min=3,max=64"`
	Name            string        `json:"name" validate:"required,max=120"`
	Type            string        `json:"type" validate:"required"`
	Title           string        `json:"title" validate:"required"`
	Message         string        `json:"message" validate:"required"`
	Email           EmailTemplate `json:"email"`
	SMS             string        `json:"sms" validate:"omitempty,max=480"`
	Push            PushTemplate  `json:"push"`
	DefaultChannels []Channel     `json:"defaultChannels" validate:"required,min=1,dive,oneof=in_app email sms push"`
	Priority        Priority      `json:"priority" validate:"required,oneof=low medium high urgent"`
	Actionable      bool          `json:"actionable"`
	ActionURL       string        `json:"actionUrl,omitempty"`
	ExpiryDays      int           `json:"expiryDays,omitempty" validate:"gte=0,lte=365"`
}

// UpdateTemplateRequest edits template content; the code is immutable
type UpdateTemplateRequest struct {
	Name            *string        `json:"name,omitempty" validate:"omitempty,max=120"`
	Title           *string        `json:"title,omitempty"`
	Message         *string        `json:"message,omitempty"`
	Email           *EmailTemplate `json:"email,omitempty"`
	SMS             *string        `json:"sms,omitempty" validate:"omitempty,max=480"`
	Push            *PushTemplate  `json:"push,omitempty"`
	DefaultChannels []Channel      `json:"defaultChannels,omitempty" validate:"omitempty,min=1,dive,oneof=in_app email sms push"`
	Priority        *Priority      `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Actionable      *bool          `json:"actionable,omitempty"`
	ActionURL       *string        `json:"actionUrl,omitempty"`
	ExpiryDays      *int           `json:"expiryDays,omitempty" validate:"omitempty,gte=0,lte=365"`
	IsActive        *bool          `json:"isActive,omitempty"`
}
