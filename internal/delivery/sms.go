package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/pkg/logger"
	"golang.org/x/time/rate"
)

// SMSGatewayAdapter posts SMS messages to an HTTP gateway, throttled to the gateway's send rate
type SMSGatewayAdapter struct {
	url      string
	apiKey   string
	senderID string
	client   *http.Client
	limiter  *rate.Limiter
	log      *logger.Logger
}

type smsPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type smsResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// NewSMSGatewayAdapter creates an adapter allowing perSecond sends with a burst of one second's worth.
func NewSMSGatewayAdapter(url, apiKey, senderID string, perSecond float64, log *logger.Logger) *SMSGatewayAdapter {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &SMSGatewayAdapter{
		url:      url,
		apiKey:   apiKey,
		senderID: senderID,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		log:      log,
	}
}

func (a *SMSGatewayAdapter) Send(ctx context.Context, channel models.Channel, contact Contact, content models.NotificationContent) (Result, error) {
	if channel != models.ChannelSMS {
		return Result{}, fmt.Errorf("sms adapter cannot send %s", channel)
	}
	if contact.Phone == "" {
		return Result{}, ErrNoContact
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("sms rate limiter: %w", err)
	}

	body, err := json.Marshal(smsPayload{To: contact.Phone, From: a.senderID, Message: SMSContent(content)})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.log.WithFields(logger.Fields{
			"provider":      "sms",
			"status_code":   resp.StatusCode,
			"response_body": string(respBody),
		}).Error("Failed to send notification")
		return Result{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed smsResponse
	_ = json.Unmarshal(respBody, &parsed)
	return Result{
		Delivered: true,
		Metadata: map[string]any{
			"provider":   "sms",
			"statusCode": resp.StatusCode,
			"messageId":  parsed.MessageID,
		},
	}, nil
}
