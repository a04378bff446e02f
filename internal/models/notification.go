package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Channels lists every delivery channel in evaluation order.
var Channels = []Channel{ChannelInApp, ChannelEmail, ChannelSMS, ChannelPush}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type NotificationStatus string

const (
	NotificationUnread   NotificationStatus = "unread"
	NotificationRead     NotificationStatus = "read"
	NotificationArchived NotificationStatus = "archived"
)

// ChannelDelivery records the outcome of one channel's delivery attempt
type ChannelDelivery struct {
	Delivered   bool           `json:"delivered" bson:"delivered"`
	DeliveredAt *time.Time     `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Error       string         `json:"error,omitempty" bson:"error,omitempty"`
}

// EntityRef points at the domain record a notification is about
type EntityRef struct {
	Type string `json:"type,omitempty" bson:"type,omitempty"` // pickup_request, pickup_item, shipment
	ID   string `json:"id,omitempty" bson:"id,omitempty"`
}

// Notification represents a generated user notification (MongoDB)
type Notification struct {
	ID             primitive.ObjectID          `json:"id,omitempty" bson:"_id,omitempty"`
	Recipient      string                      `json:"recipient" bson:"recipient"`
	Type           string                      `json:"type" bson:"type"`
	TemplateCode   string                      `json:"templateCode,omitempty" bson:"templateCode,omitempty"`
	Title          string                      `json:"title" bson:"title"`
	Message        string                      `json:"message" bson:"message"`
	Priority       Priority                    `json:"priority" bson:"priority"`
	Channels       []Channel                   `json:"channels" bson:"channels"`
	DeliveryStatus map[Channel]ChannelDelivery `json:"deliveryStatus" bson:"deliveryStatus"`
	Status         NotificationStatus          `json:"status" bson:"status"`
	Entity         EntityRef                   `json:"entity" bson:"entity"`
	Data           map[string]any              `json:"data,omitempty" bson:"data,omitempty"`
	Actionable     bool                        `json:"actionable" bson:"actionable"`
	ActionURL      string                      `json:"actionUrl,omitempty" bson:"actionUrl,omitempty"`
	ReadAt         *time.Time                  `json:"readAt,omitempty" bson:"readAt,omitempty"`
	ArchivedAt     *time.Time                  `json:"archivedAt,omitempty" bson:"archivedAt,omitempty"`
	ExpiresAt      *time.Time                  `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedAt      time.Time                   `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt" bson:"updatedAt"`
}

// NotificationFilter narrows inbox listings
type NotificationFilter struct {
	Status NotificationStatus
	Type   string
}

// GenerateNotificationRequest is the body for generating a notification from a template
type GenerateNotificationRequest struct {
	TemplateCode string         `json:"templateCode" validate:"required"`
	UserID       string         `json:"userId" validate:"required"`
	Data         map[string]any `json:"data"`
	Entity       EntityRef      `json:"entity"`
}
