package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusVerified  ItemStatus = "verified"
	ItemStatusRejected  ItemStatus = "rejected"
	ItemStatusProcessed ItemStatus = "processed"
	ItemStatusShipped   ItemStatus = "shipped"
)

// Volumetric divisors: cm³/kg for metric, in³/lb otherwise.
const (
	VolumetricDivisorCM   = 5000.0
	VolumetricDivisorInch = 139.0
)

type Weight struct {
	Value float64 `json:"value" bson:"value" validate:"gt=0"`
	Unit  string  `json:"unit" bson:"unit" validate:"required,oneof=kg lb"`
}

type Dimensions struct {
	Length float64 `json:"length" bson:"length" validate:"gte=0"`
	Width  float64 `json:"width" bson:"width" validate:"gte=0"`
	Height float64 `json:"height" bson:"height" validate:"gte=0"`
	Unit   string  `json:"unit" bson:"unit" validate:"required,oneof=cm in"`
}

type ItemImage struct {
	ID        string    `json:"id" bson:"id"`
	URL       string    `json:"url" bson:"url"`
	Type      string    `json:"type" bson:"type"` // item, package, label, damage
	Caption   string    `json:"caption,omitempty" bson:"caption,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	TakenBy   string    `json:"takenBy" bson:"takenBy"`
}

type Signature struct {
	Image     string    `json:"image" bson:"image"`
	Name      string    `json:"name" bson:"name"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// PickupItem is a single package collected during a pickup, stored in MongoDB
type PickupItem struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code               string             `json:"code" bson:"code"`
	PickupRequestID    primitive.ObjectID `json:"pickupRequestId" bson:"pickupRequestId"`
	PickupAssignmentID primitive.ObjectID `json:"pickupAssignmentId" bson:"pickupAssignmentId"`
	Description        string             `json:"description" bson:"description"`
	Category           string             `json:"category" bson:"category"`
	Quantity           int                `json:"quantity" bson:"quantity"`
	Weight             Weight             `json:"weight" bson:"weight"`
	Dimensions         Dimensions         `json:"dimensions" bson:"dimensions"`
	VolumetricWeight   float64            `json:"volumetricWeight" bson:"volumetricWeight"`
	ChargeableWeight   float64            `json:"chargeableWeight" bson:"chargeableWeight"`
	Status             ItemStatus         `json:"status" bson:"status"`
	VerifiedBy         string             `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	VerifiedAt         *time.Time         `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
	Images             []ItemImage        `json:"images" bson:"images"`
	Signature          *Signature         `json:"signature,omitempty" bson:"signature,omitempty"`
	Notes              string             `json:"notes,omitempty" bson:"notes,omitempty"`
	Version            int64              `json:"version" bson:"version"`
	CreatedBy          string             `json:"createdBy" bson:"createdBy"`
	UpdatedBy          string             `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// VolumetricWeightOf returns (L×W×H)/divisor rounded to two decimals.
func VolumetricWeightOf(d Dimensions) float64 {
	divisor := VolumetricDivisorInch
	if d.Unit == "cm" {
		divisor = VolumetricDivisorCM
	}
	return round2(d.Length * d.Width * d.Height / divisor)
}

// ComputeWeights refreshes the derived weight fields. Repositories call it before every write.
func (i *PickupItem) ComputeWeights() {
	i.VolumetricWeight = VolumetricWeightOf(i.Dimensions)
	i.ChargeableWeight = math.Max(i.Weight.Value, i.VolumetricWeight)
}

// ImageIndex returns the position of the image with the given id, or -1.
func (i *PickupItem) ImageIndex(imageID string) int {
	for idx, img := range i.Images {
		if img.ID == imageID {
			return idx
		}
	}
	return -1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreatePickupItemRequest defines the request body for registering an item on a pickup
type CreatePickupItemRequest struct {
	PickupRequestID    string     `json:"pickupRequestId" validate:"required,mongodb"`
	PickupAssignmentID string     `json:"pickupAssignmentId" validate:"required,mongodb"`
	Description        string     `json:"description" validate:"required,min=2,max=500"`
	Category           string     `json:"category" validate:"required,oneof=document package fragile electronic clothing food other"`
	Quantity           int        `json:"quantity" validate:"required,min=1"`
	Weight             Weight     `json:"weight" validate:"required"`
	Dimensions         Dimensions `json:"dimensions" validate:"required"`
	Notes              string     `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type UpdateItemStatusRequest struct {
	Status ItemStatus `json:"status" validate:"required,oneof=pending verified rejected processed shipped"`
	Notes  string     `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type UpdateMeasurementsRequest struct {
	Weight     *Weight     `json:"weight,omitempty" validate:"omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty" validate:"omitempty"`
}

type AddImageRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Type    string `json:"type" validate:"required,oneof=item package label damage"`
	Caption string `json:"caption,omitempty" validate:"omitempty,max=200"`
}

type SignatureRequest struct {
	Image string `json:"image" validate:"required"`
	Name  string `json:"name" validate:"required,min=2,max=100"`
}
