package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string

const (
	RequestStatusPending     RequestStatus = "pending"
	RequestStatusScheduled   RequestStatus = "scheduled"
	RequestStatusInProgress  RequestStatus = "in_progress"
	RequestStatusArrived     RequestStatus = "arrived"
	RequestStatusCompleted   RequestStatus = "completed"
	RequestStatusCancelled   RequestStatus = "cancelled"
	RequestStatusFailed      RequestStatus = "failed"
	RequestStatusRescheduled RequestStatus = "rescheduled"
)

// Activity is one append-only entry in a pickup request's history
type Activity struct {
	Action      string        `json:"action" bson:"action"`
	Status      RequestStatus `json:"status" bson:"status"`
	PerformedBy string        `json:"performedBy" bson:"performedBy"`
	Timestamp   time.Time     `json:"timestamp" bson:"timestamp"`
	Details     string        `json:"details,omitempty" bson:"details,omitempty"`
}

// PickupRequest aggregates the items collected for one customer pickup (MongoDB)
type PickupRequest struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code            string             `json:"code" bson:"code"`
	CustomerID      string             `json:"customerId" bson:"customerId"`
	BranchID        string             `json:"branchId" bson:"branchId"`
	PickupAddress   string             `json:"pickupAddress" bson:"pickupAddress"`
	ScheduledDate   *time.Time         `json:"scheduledDate,omitempty" bson:"scheduledDate,omitempty"`
	Status          RequestStatus      `json:"status" bson:"status"`
	ActivityHistory []Activity         `json:"activityHistory" bson:"activityHistory"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}
