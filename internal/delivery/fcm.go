package delivery

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/samudra-paket/erp/backend/internal/models"
)

// fcmAPI is the part of *messaging.Client the adapter uses.
type fcmAPI interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMPushAdapter delivers the push channel to every active device token of the user
type FCMPushAdapter struct {
	client fcmAPI
}

func NewFCMPushAdapter(client *messaging.Client) *FCMPushAdapter {
	return &FCMPushAdapter{client: client}
}

// Send counts as delivered when at least one device accepted the message.
func (a *FCMPushAdapter) Send(ctx context.Context, channel models.Channel, contact Contact, content models.NotificationContent) (Result, error) {
	if channel != models.ChannelPush {
		return Result{}, fmt.Errorf("fcm adapter cannot send %s", channel)
	}
	if len(contact.PushTokens) == 0 {
		return Result{}, ErrNoContact
	}
	push := PushContent(content)

	msg := &messaging.MulticastMessage{
		Tokens: contact.PushTokens,
		Notification: &messaging.Notification{
			Title: push.Title,
			Body:  push.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	if content.ActionURL != "" {
		msg.Data = map[string]string{"actionUrl": content.ActionURL}
	}

	resp, err := a.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return Result{}, fmt.Errorf("fcm multicast: %w", err)
	}

	var messageIDs, failures []string
	for i, r := range resp.Responses {
		if r.Success {
			messageIDs = append(messageIDs, r.MessageID)
			continue
		}
		if r.Error != nil && i < len(contact.PushTokens) {
			failures = append(failures, fmt.Sprintf("%s: %v", contact.PushTokens[i], r.Error))
		}
	}
	meta := map[string]any{
		"provider":     "fcm",
		"successCount": resp.SuccessCount,
		"failureCount": resp.FailureCount,
		"messageIds":   messageIDs,
	}
	if len(failures) > 0 {
		meta["failures"] = failures
	}
	if resp.SuccessCount == 0 {
		return Result{Metadata: meta}, fmt.Errorf("fcm rejected all %d tokens", len(contact.PushTokens))
	}
	return Result{Delivered: true, Metadata: meta}, nil
}
