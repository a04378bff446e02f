package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("requested resource not found")
var ErrInvalidTransition = errors.New("status transition not allowed")
var ErrValidation = errors.New("validation failed")
var ErrUnauthorizedAccess = errors.New("user does not have permission to access this resource")
var ErrDependency = errors.New("delivery dependency failed")
var ErrDuplicateCode = errors.New("resource conflict, code already exists")

// ErrConflict means the record changed between read and write.
var ErrConflict = errors.New("resource was modified by another request")

// ErrParentSync marks an item update whose parent request could not be re-evaluated.
var ErrParentSync = errors.New("pickup request status out of sync with its items")

// InvalidTransitionError reports a rejected item status change.
type InvalidTransitionError struct {
	Current   ItemStatus
	Requested ItemStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.Current, e.Requested)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// ValidationError carries field level messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DependencyError wraps a failure reported by a delivery channel.
type DependencyError struct {
	Channel Channel
	Err     error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DependencyError) Is(target error) bool { return target == ErrDependency }

func (e *DependencyError) Unwrap() error { return e.Err }

// ParentSyncError is returned when the item write succeeded (or was rolled back,
// see Committed) but the parent request could not be updated.
type ParentSyncError struct {
	ItemID    primitive.ObjectID
	RequestID primitive.ObjectID
	Item      *PickupItem
	Committed bool
	Err       error
}

func (e *ParentSyncError) Error() string {
	if !e.Committed {
		return fmt.Sprintf("item %s rolled back, request %s not re-evaluated: %v", e.ItemID.Hex(), e.RequestID.Hex(), e.Err)
	}
	return fmt.Sprintf("item %s saved but request %s not re-evaluated: %v", e.ItemID.Hex(), e.RequestID.Hex(), e.Err)
}

func (e *ParentSyncError) Is(target error) bool { return target == ErrParentSync }

func (e *ParentSyncError) Unwrap() error { return e.Err }
