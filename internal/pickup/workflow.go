package pickup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/repositories"
	"github.com/samudra-paket/erp/backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// codeRetries bounds how often a clashing item code is re-drawn.
const codeRetries = 3

// writeRetries bounds how often an item write that lost a version race is replayed on a fresh read.
const writeRetries = 3

// Validator is satisfied by validators.CustomValidator.
type Validator interface {
	Validate(i interface{}) error
}

// Notifier hears about pickup changes once they are stored.
type Notifier interface {
	ItemStatusChanged(ctx context.Context, item *models.PickupItem, previous models.ItemStatus, request *models.PickupRequest, actorID string)
	RequestCompleted(ctx context.Context, request *models.PickupRequest, itemCount int, actorID string)
}

// Workflow coordinates pickup item changes and keeps the parent request status in step with them
type Workflow struct {
	items     repositories.PickupItemRepository
	requests  repositories.PickupRequestRepository
	rates     repositories.ForwarderRateRepository
	sequencer repositories.ItemSequencer
	tx        repositories.TxRunner
	notifier  Notifier
	validator Validator
	log       *logger.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewWorkflow creates a new Workflow. notifier may be nil.
func NewWorkflow(
	items repositories.PickupItemRepository,
	requests repositories.PickupRequestRepository,
	rates repositories.ForwarderRateRepository,
	sequencer repositories.ItemSequencer,
	tx repositories.TxRunner,
	notifier Notifier,
	validator Validator,
	log *logger.Logger,
) *Workflow {
	return &Workflow{
		items:     items,
		requests:  requests,
		rates:     rates,
		sequencer: sequencer,
		tx:        tx,
		notifier:  notifier,
		validator: validator,
		log:       log,
		Now:       time.Now,
	}
}

// syncOutcome is what a parent re-evaluation saw and did.
type syncOutcome struct {
	request   *models.PickupRequest
	itemCount int
	completed bool
}

// UpdateItemStatus applies a status change to an item and re-evaluates its request.
// The transition is checked against the version it is written over.
func (w *Workflow) UpdateItemStatus(ctx context.Context, itemID primitive.ObjectID, requested models.ItemStatus, actorID, notes string) (*models.PickupItem, error) {
	var previous models.ItemStatus
	var outcome syncOutcome
	item, err := w.mutateItem(ctx, itemID, func(item *models.PickupItem) error {
		previous = item.Status
		if err := ApplyTransition(item, requested, actorID, w.Now()); err != nil {
			return err
		}
		if notes != "" {
			item.Notes = notes
		}
		item.UpdatedBy = actorID
		return nil
	}, func(ctx context.Context, item *models.PickupItem) error {
		var err error
		outcome, err = w.saveAndSync(ctx, item, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	w.log.WithFields(logger.Fields{
		"item":    item.Code,
		"from":    previous,
		"to":      item.Status,
		"actor":   actorID,
		"request": item.PickupRequestID.Hex(),
	}).Info("pickup item status updated")

	if w.notifier != nil {
		w.notifier.ItemStatusChanged(ctx, item, previous, outcome.request, actorID)
	}
	w.announceCompletion(ctx, outcome, actorID)
	return item, nil
}

// mutateItem reads the item, applies change and writes it with save. A write that
// loses a version race is replayed on a fresh read, so change always sees the stored state.
func (w *Workflow) mutateItem(
	ctx context.Context,
	itemID primitive.ObjectID,
	change func(item *models.PickupItem) error,
	save func(ctx context.Context, item *models.PickupItem) error,
) (*models.PickupItem, error) {
	for attempt := 0; ; attempt++ {
		item, err := w.items.GetItemByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if err := change(item); err != nil {
			return nil, err
		}
		err = save(ctx, item)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, models.ErrConflict) || attempt >= writeRetries {
			return nil, err
		}
		w.log.WithFields(logger.Fields{"item": itemID.Hex(), "attempt": attempt + 1}).Warn("pickup item changed concurrently, re-reading")
	}
}

// saveItem is the plain save for mutateItem.
func (w *Workflow) saveItem(ctx context.Context, item *models.PickupItem) error {
	return w.items.SaveItem(ctx, item)
}

// saveAndSync writes the item and re-evaluates the parent inside one unit of work.
func (w *Workflow) saveAndSync(ctx context.Context, item *models.PickupItem, actorID string) (syncOutcome, error) {
	var outcome syncOutcome
	var syncErr error
	err := w.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		syncErr = nil
		if err := w.items.SaveItem(ctx, item); err != nil {
			return err
		}
		var err error
		outcome, err = w.syncRequestStatus(ctx, item.PickupRequestID, actorID)
		if err != nil {
			syncErr = err
			return err
		}
		return nil
	})
	if err == nil {
		return outcome, nil
	}
	if syncErr == nil {
		return syncOutcome{}, err
	}
	return syncOutcome{}, w.parentSyncError(item, syncErr, !w.tx.Atomic())
}

func (w *Workflow) parentSyncError(item *models.PickupItem, err error, committed bool) error {
	pse := &models.ParentSyncError{
		ItemID:    item.ID,
		RequestID: item.PickupRequestID,
		Committed: committed,
		Err:       err,
	}
	if committed {
		pse.Item = item
	}
	w.log.WithFields(logger.Fields{
		"item":      item.ID.Hex(),
		"request":   item.PickupRequestID.Hex(),
		"committed": committed,
		"error":     err.Error(),
	}).Error("pickup request re-evaluation failed")
	return pse
}

// syncRequestStatus completes an in-progress request once every item is accepted.
// A rejected item leaves the request untouched, and so does an owner moving the
// request out of in_progress between the read and the write.
func (w *Workflow) syncRequestStatus(ctx context.Context, requestID primitive.ObjectID, actorID string) (syncOutcome, error) {
	req, err := w.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return syncOutcome{}, err
	}
	outcome := syncOutcome{request: req}
	if req.Status != models.RequestStatusInProgress {
		return outcome, nil
	}
	items, err := w.items.GetItemsByRequestID(ctx, requestID)
	if err != nil {
		return outcome, err
	}
	outcome.itemCount = len(items)
	if len(items) == 0 {
		return outcome, nil
	}
	for _, it := range items {
		if !countsTowardCompletion(it.Status) {
			return outcome, nil
		}
	}

	activity := models.Activity{
		Action:      "items_verified",
		Status:      models.RequestStatusCompleted,
		PerformedBy: actorID,
		Timestamp:   w.Now(),
		Details:     fmt.Sprintf("all %d items verified", len(items)),
	}
	moved, err := w.requests.TransitionRequestStatus(ctx, requestID, models.RequestStatusInProgress, models.RequestStatusCompleted, activity)
	if err != nil {
		return outcome, err
	}
	if !moved {
		w.log.WithFields(logger.Fields{"request": req.Code}).Info("pickup request left in_progress before completion, not derived")
		return outcome, nil
	}
	req.Status = models.RequestStatusCompleted
	req.ActivityHistory = append(req.ActivityHistory, activity)
	outcome.completed = true
	w.log.WithFields(logger.Fields{"request": req.Code, "items": len(items)}).Info("pickup request completed")
	return outcome, nil
}

func (w *Workflow) announceCompletion(ctx context.Context, outcome syncOutcome, actorID string) {
	if w.notifier != nil && outcome.completed {
		w.notifier.RequestCompleted(ctx, outcome.request, outcome.itemCount, actorID)
	}
}

// ReconcileRequestStatus re-runs the parent evaluation on its own, e.g. after a ParentSyncError.
func (w *Workflow) ReconcileRequestStatus(ctx context.Context, requestID primitive.ObjectID, actorID string) (*models.PickupRequest, error) {
	var outcome syncOutcome
	err := w.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = w.syncRequestStatus(ctx, requestID, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	w.announceCompletion(ctx, outcome, actorID)
	return w.requests.GetRequestByID(ctx, requestID)
}

// CreateItem registers a new pending item on a pickup request.
func (w *Workflow) CreateItem(ctx context.Context, input models.CreatePickupItemRequest, actorID string) (*models.PickupItem, error) {
	if err := w.validator.Validate(&input); err != nil {
		return nil, err
	}
	requestID, err := models.ParseID("pickupRequestId", input.PickupRequestID)
	if err != nil {
		return nil, err
	}
	assignmentID, err := models.ParseID("pickupAssignmentId", input.PickupAssignmentID)
	if err != nil {
		return nil, err
	}

	parent, err := w.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	item := &models.PickupItem{
		PickupRequestID:    requestID,
		PickupAssignmentID: assignmentID,
		Description:        input.Description,
		Category:           input.Category,
		Quantity:           input.Quantity,
		Weight:             input.Weight,
		Dimensions:         input.Dimensions,
		Status:             models.ItemStatusPending,
		Images:             []models.ItemImage{},
		Notes:              input.Notes,
		CreatedBy:          actorID,
	}
	item.ComputeWeights()

	for attempt := 0; ; attempt++ {
		seq, err := w.sequencer.NextSequence(ctx, requestID)
		if err != nil {
			return nil, err
		}
		item.Code = ItemCode(parent.Code, seq)
		err = w.items.CreateItem(ctx, item)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrDuplicateCode) || attempt >= codeRetries {
			return nil, err
		}
		w.log.WithFields(logger.Fields{"code": item.Code, "attempt": attempt + 1}).Warn("pickup item code taken, drawing a new one")
	}

	w.log.WithFields(logger.Fields{"item": item.Code, "request": parent.Code, "actor": actorID}).Info("pickup item created")

	outcome, err := w.syncRequestStatus(ctx, requestID, actorID)
	if err != nil {
		return nil, w.parentSyncError(item, err, true)
	}
	w.announceCompletion(ctx, outcome, actorID)
	return item, nil
}

func (w *Workflow) GetItem(ctx context.Context, itemID primitive.ObjectID) (*models.PickupItem, error) {
	return w.items.GetItemByID(ctx, itemID)
}

func (w *Workflow) ListItems(ctx context.Context, requestID primitive.ObjectID) ([]models.PickupItem, error) {
	if _, err := w.requests.GetRequestByID(ctx, requestID); err != nil {
		return nil, err
	}
	return w.items.GetItemsByRequestID(ctx, requestID)
}

// UpdateMeasurements replaces weight and/or dimensions; derived weights follow on save.
func (w *Workflow) UpdateMeasurements(ctx context.Context, itemID primitive.ObjectID, input models.UpdateMeasurementsRequest, actorID string) (*models.PickupItem, error) {
	if err := w.validator.Validate(&input); err != nil {
		return nil, err
	}
	if input.Weight == nil && input.Dimensions == nil {
		return nil, models.NewValidationError("weight", "weight or dimensions must be provided")
	}
	return w.mutateItem(ctx, itemID, func(item *models.PickupItem) error {
		if input.Weight != nil {
			item.Weight = *input.Weight
		}
		if input.Dimensions != nil {
			item.Dimensions = *input.Dimensions
		}
		item.UpdatedBy = actorID
		return nil
	}, w.saveItem)
}

func (w *Workflow) AddImage(ctx context.Context, itemID primitive.ObjectID, input models.AddImageRequest, actorID string) (*models.PickupItem, error) {
	if err := w.validator.Validate(&input); err != nil {
		return nil, err
	}
	image := models.ItemImage{
		ID:        uuid.NewString(),
		URL:       input.URL,
		Type:      input.Type,
		Caption:   input.Caption,
		Timestamp: w.Now(),
		TakenBy:   actorID,
	}
	return w.mutateItem(ctx, itemID, func(item *models.PickupItem) error {
		item.Images = append(item.Images, image)
		item.UpdatedBy = actorID
		return nil
	}, w.saveItem)
}

func (w *Workflow) RemoveImage(ctx context.Context, itemID primitive.ObjectID, imageID, actorID string) (*models.PickupItem, error) {
	return w.mutateItem(ctx, itemID, func(item *models.PickupItem) error {
		idx := item.ImageIndex(imageID)
		if idx < 0 {
			return fmt.Errorf("image %s: %w", imageID, models.ErrNotFound)
		}
		item.Images = append(item.Images[:idx], item.Images[idx+1:]...)
		item.UpdatedBy = actorID
		return nil
	}, w.saveItem)
}

// SetSignature records (or overwrites) the sender's signature on an item.
func (w *Workflow) SetSignature(ctx context.Context, itemID primitive.ObjectID, input models.SignatureRequest, actorID string) (*models.PickupItem, error) {
	if err := w.validator.Validate(&input); err != nil {
		return nil, err
	}
	signature := &models.Signature{Image: input.Image, Name: input.Name, Timestamp: w.Now()}
	return w.mutateItem(ctx, itemID, func(item *models.PickupItem) error {
		item.Signature = signature
		item.UpdatedBy = actorID
		return nil
	}, w.saveItem)
}

// QuoteRates prices every matching forwarder rate against the item's chargeable weight.
func (w *Workflow) QuoteRates(ctx context.Context, itemID primitive.ObjectID, forwarderID string, origin, destination models.Area) ([]models.RateQuote, error) {
	item, err := w.items.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	rates, err := w.rates.FindRatesForRoute(ctx, forwarderID, origin, destination)
	if err != nil {
		return nil, err
	}
	quotes := make([]models.RateQuote, 0, len(rates))
	for _, rate := range rates {
		quotes = append(quotes, Quote(rate, item.ChargeableWeight))
	}
	return quotes, nil
}

// Quote bills whole kilograms, never less than the rate's minimum weight.
func Quote(rate models.ForwarderRate, chargeableWeight float64) models.RateQuote {
	billed := math.Max(math.Ceil(chargeableWeight), rate.MinWeight)
	return models.RateQuote{
		Rate:           rate,
		BilledWeight:   billed,
		EstimatedPrice: math.Round(rate.PricePerKg*billed*100) / 100,
	}
}
