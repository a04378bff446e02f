package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samudra-paket/erp/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PickupRequestRepository covers the request operations the item workflow needs
type PickupRequestRepository interface {
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.PickupRequest, error)
	// TransitionRequestStatus moves the request from one status to another. It reports false,
	// without error, when the request is no longer in from.
	TransitionRequestStatus(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus, activity models.Activity) (bool, error)
}

type mongoPickupRequestRepository struct {
	collection *mongo.Collection
}

func NewMongoPickupRequestRepository(db *mongo.Database) PickupRequestRepository {
	return &mongoPickupRequestRepository{collection: db.Collection(PickupRequestsCollection)}
}

func (r *mongoPickupRequestRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.PickupRequest, error) {
	var req models.PickupRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("pickup request %s: %w", id.Hex(), models.ErrNotFound)
		}
		return nil, err
	}
	return &req, nil
}

// TransitionRequestStatus sets the status and appends to activityHistory in one document write,
// guarded on the status the caller evaluated.
func (r *mongoPickupRequestRepository) TransitionRequestStatus(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus, activity models.Activity) (bool, error) {
	update := bson.M{
		"$set":  bson.M{"status": to, "updatedAt": time.Now()},
		"$push": bson.M{"activityHistory": activity},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, update)
	if err != nil {
		return false, fmt.Errorf("update pickup request status: %w", err)
	}
	return res.MatchedCount == 1, nil
}
