package pickup

import (
	"fmt"
	"time"

	"github.com/samudra-paket/erp/backend/internal/models"
)

// allowedTransitions is the item status adjacency table. Shipped is terminal.
var allowedTransitions = map[models.ItemStatus][]models.ItemStatus{
	models.ItemStatusPending:   {models.ItemStatusVerified, models.ItemStatusRejected},
	models.ItemStatusVerified:  {models.ItemStatusProcessed, models.ItemStatusRejected},
	models.ItemStatusRejected:  {models.ItemStatusPending},
	models.ItemStatusProcessed: {models.ItemStatusShipped},
	models.ItemStatusShipped:   {},
}

// NextStatus returns nil when current may move to requested, and an
// *models.InvalidTransitionError otherwise.
func NextStatus(current, requested models.ItemStatus) error {
	for _, next := range allowedTransitions[current] {
		if next == requested {
			return nil
		}
	}
	return &models.InvalidTransitionError{Current: current, Requested: requested}
}

// ApplyTransition moves item to requested, stamping the verifier on entry into verified.
func ApplyTransition(item *models.PickupItem, requested models.ItemStatus, actorID string, now time.Time) error {
	if item == nil {
		return fmt.Errorf("apply transition: %w", models.ErrNotFound)
	}
	if err := NextStatus(item.Status, requested); err != nil {
		return err
	}
	item.Status = requested
	if requested == models.ItemStatusVerified {
		at := now
		item.VerifiedBy = actorID
		item.VerifiedAt = &at
	}
	return nil
}

// countsTowardCompletion reports whether an item no longer blocks its request from completing.
func countsTowardCompletion(s models.ItemStatus) bool {
	switch s {
	case models.ItemStatusVerified, models.ItemStatusProcessed, models.ItemStatusShipped:
		return true
	}
	return false
}

// ItemCode formats the human readable item code, e.g. PU-2405-0001-003.
func ItemCode(requestCode string, seq int64) string {
	return fmt.Sprintf("%s-%03d", requestCode, seq)
}
