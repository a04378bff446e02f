package notification

import (
	"context"
	"errors"

	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/pkg/logger"
)

// Template codes the pickup workflow fires.
const (
	TemplatePickupItemStatus       = "PICKUP_ITEM_STATUS_CHANGED"
	TemplatePickupRequestCompleted = "PICKUP_REQUEST_COMPLETED"
)

// generator is the part of Dispatcher PickupEvents needs.
type generator interface {
	GenerateFromTemplate(ctx context.Context, templateCode, userID string, data map[string]any, entity models.EntityRef) (*models.Notification, error)
}

// PickupEvents turns pickup workflow changes into customer notifications.
// Dispatch failures are logged; the pickup change has already been stored.
type PickupEvents struct {
	dispatcher generator
	log        *logger.Logger
}

func NewPickupEvents(dispatcher *Dispatcher, log *logger.Logger) *PickupEvents {
	return &PickupEvents{dispatcher: dispatcher, log: log}
}

func (p *PickupEvents) ItemStatusChanged(ctx context.Context, item *models.PickupItem, previous models.ItemStatus, request *models.PickupRequest, actorID string) {
	if request == nil {
		return
	}
	data := map[string]any{
		"item": map[string]any{
			"id":               item.ID.Hex(),
			"code":             item.Code,
			"description":      item.Description,
			"status":           string(item.Status),
			"previousStatus":   string(previous),
			"chargeableWeight": item.ChargeableWeight,
			"notes":            item.Notes,
		},
		"request": requestData(request),
		"actor":   actorID,
	}
	entity := models.EntityRef{Type: "pickup_item", ID: item.ID.Hex()}
	p.dispatch(ctx, TemplatePickupItemStatus, request.CustomerID, data, entity)
}

func (p *PickupEvents) RequestCompleted(ctx context.Context, request *models.PickupRequest, itemCount int, actorID string) {
	req := requestData(request)
	req["itemCount"] = itemCount
	data := map[string]any{
		"request": req,
		"actor":   actorID,
	}
	entity := models.EntityRef{Type: "pickup_request", ID: request.ID.Hex()}
	p.dispatch(ctx, TemplatePickupRequestCompleted, request.CustomerID, data, entity)
}

func requestData(r *models.PickupRequest) map[string]any {
	return map[string]any{
		"id":            r.ID.Hex(),
		"code":          r.Code,
		"status":        string(r.Status),
		"pickupAddress": r.PickupAddress,
	}
}

func (p *PickupEvents) dispatch(ctx context.Context, templateCode, userID string, data map[string]any, entity models.EntityRef) {
	fields := logger.Fields{"template": templateCode, "entity": entity.Type, "entityId": entity.ID}
	if userID == "" {
		p.log.WithFields(fields).Debug("pickup event has no recipient")
		return
	}
	n, err := p.dispatcher.GenerateFromTemplate(ctx, templateCode, userID, data, entity)
	switch {
	case errors.Is(err, models.ErrNotFound):
		p.log.WithFields(fields).Debug("no active template for pickup event")
	case err != nil:
		fields["error"] = err.Error()
		p.log.WithFields(fields).Warn("pickup event notification failed")
	case n == nil:
		p.log.WithFields(fields).Debug("pickup event suppressed by preference")
	}
}
