package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChannelFlags toggles each delivery channel for a notification type
type ChannelFlags struct {
	InApp bool `json:"in_app" bson:"in_app"`
	Email bool `json:"email" bson:"email"`
	SMS   bool `json:"sms" bson:"sms"`
	Push  bool `json:"push" bson:"push"`
}

// Enabled reports whether the given channel is switched on.
func (f ChannelFlags) Enabled(c Channel) bool {
	switch c {
	case ChannelInApp:
		return f.InApp
	case ChannelEmail:
		return f.Email
	case ChannelSMS:
		return f.SMS
	case ChannelPush:
		return f.Push
	}
	return false
}

type TypePreference struct {
	Enabled     bool         `json:"enabled" bson:"enabled"`
	Channels    ChannelFlags `json:"channels" bson:"channels"`
	MinPriority Priority     `json:"minPriority" bson:"minPriority"`
}

type QuietHours struct {
	Enabled       bool   `json:"enabled" bson:"enabled"`
	Start         string `json:"start" bson:"start"` // HH:MM, 24h
	End           string `json:"end" bson:"end"`
	Timezone      string `json:"timezone" bson:"timezone"`
	ExcludeUrgent bool   `json:"excludeUrgent" bson:"excludeUrgent"`
}

type PushToken struct {
	Token    string    `json:"token" bson:"token"`
	Device   string    `json:"device,omitempty" bson:"device,omitempty"`
	LastUsed time.Time `json:"lastUsed" bson:"lastUsed"`
}

type ContactInfo struct {
	Email      string      `json:"email,omitempty" bson:"email,omitempty"`
	Phone      string      `json:"phone,omitempty" bson:"phone,omitempty"`
	PushTokens []PushToken `json:"pushTokens" bson:"pushTokens"`
}

// NotificationPreference is the single per-user delivery configuration (MongoDB)
type NotificationPreference struct {
	ID                primitive.ObjectID        `json:"id,omitempty" bson:"_id,omitempty"`
	User              string                    `json:"user" bson:"user"`
	NotificationTypes map[string]TypePreference `json:"notificationTypes" bson:"notificationTypes"`
	QuietHours        QuietHours                `json:"quietHours" bson:"quietHours"`
	ContactInfo       ContactInfo               `json:"contactInfo" bson:"contactInfo"`
	CreatedAt         time.Time                 `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt" bson:"updatedAt"`
}

// Notification types known to the system.
const (
	TypePickupRequest    = "pickup_request"
	TypePickupAssignment = "pickup_assignment"
	TypePickupItem       = "pickup_item"
	TypeShipmentUpdate   = "shipment_update"
	TypeDeliveryUpdate   = "delivery_update"
	TypePayment          = "payment"
	TypeIssueAlert       = "issue_alert"
	TypeSystem           = "system"
)

var NotificationTypes = []string{
	TypePickupRequest,
	TypePickupAssignment,
	TypePickupItem,
	TypeShipmentUpdate,
	TypeDeliveryUpdate,
	TypePayment,
	TypeIssueAlert,
	TypeSystem,
}

const DefaultTimezone = "Asia/Jakarta"

// DefaultPreference builds the document created on a user's first access.
func DefaultPreference(userID string, now time.Time) *NotificationPreference {
	types := make(map[string]TypePreference, len(NotificationTypes))
	for _, t := range NotificationTypes {
		types[t] = TypePreference{
			Enabled:     true,
			Channels:    ChannelFlags{InApp: true, Email: true},
			MinPriority: PriorityLow,
		}
	}
	return &NotificationPreference{
		User:              userID,
		NotificationTypes: types,
		QuietHours: QuietHours{
			Start:         "22:00",
			End:           "07:00",
			Timezone:      DefaultTimezone,
			ExcludeUrgent: true,
		},
		ContactInfo: ContactInfo{PushTokens: []PushToken{}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdatePreferenceRequest is a partial update; nil members are left untouched
type UpdatePreferenceRequest struct {
	NotificationTypes map[string]TypePreferenceUpdate `json:"notificationTypes,omitempty" validate:"omitempty,dive"`
	QuietHours        *QuietHoursUpdate               `json:"quietHours,omitempty" validate:"omitempty"`
	ContactInfo       *ContactInfoUpdate              `json:"contactInfo,omitempty" validate:"omitempty"`
}

type TypePreferenceUpdate struct {
	Enabled     *bool         `json:"enabled,omitempty"`
	Channels    *ChannelFlags `json:"channels,omitempty"`
	MinPriority *Priority     `json:"minPriority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
}

type QuietHoursUpdate struct {
	Enabled       *bool   `json:"enabled,omitempty"`
	Start         *string `json:"start,omitempty" validate:"omitempty,hhmm"`
	End           *string `json:"end,omitempty" validate:"omitempty,hhmm"`
	Timezone      *string `json:"timezone,omitempty" validate:"omitempty,timezone"`
	ExcludeUrgent *bool   `json:"excludeUrgent,omitempty"`
}

type ContactInfoUpdate struct {
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type RegisterPushTokenRequest struct {
	Token  string `json:"token" validate:"required,min=8"`
	Device string `json:"device,omitempty" validate:"omitempty,max=100"`
}
