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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PickupItemRepository defines the persistence operations for pickup items
type PickupItemRepository interface {
	CreateItem(ctx context.Context, item *models.PickupItem) error
	GetItemByID(ctx context.Context, id primitive.ObjectID) (*models.PickupItem, error)
	GetItemsByRequestID(ctx context.Context, requestID primitive.ObjectID) ([]models.PickupItem, error)
	CountItemsByRequestID(ctx context.Context, requestID primitive.ObjectID) (int64, error)
	SaveItem(ctx context.Context, item *models.PickupItem) error
}

// MongoPickupItemRepository implements PickupItemRepository for MongoDB
type MongoPickupItemRepository struct {
	collection *mongo.Collection
}

// NewMongoPickupItemRepository creates a new MongoPickupItemRepository
func NewMongoPickupItemRepository(db *mongo.Database) *MongoPickupItemRepository {
	return &MongoPickupItemRepository{collection: db.Collection(PickupItemsCollection)}
}

// CreateItem inserts a new item; a clash on the unique code index yields models.ErrDuplicateCode
func (r *MongoPickupItemRepository) CreateItem(ctx context.Context, item *models.PickupItem) error {
	item.ID = primitive.NewObjectID()
	item.ComputeWeights()
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.Version = 1
	if item.Images == nil {
		item.Images = []models.ItemImage{}
	}
	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		item.ID = primitive.NilObjectID
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("pickup item %s: %w", item.Code, models.ErrDuplicateCode)
		}
		return fmt.Errorf("insert pickup item: %w", err)
	}
	return nil
}

// GetItemByID retrieves an item by ID
func (r *MongoPickupItemRepository) GetItemByID(ctx context.Context, id primitive.ObjectID) (*models.PickupItem, error) {
	var item models.PickupItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("pickup item %s: %w", id.Hex(), models.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// GetItemsByRequestID lists all items of a pickup request in code order
func (r *MongoPickupItemRepository) GetItemsByRequestID(ctx context.Context, requestID primitive.ObjectID) ([]models.PickupItem, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"pickupRequestId": requestID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []models.PickupItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CountItemsByRequestID counts the items already registered on a request
func (r *MongoPickupItemRepository) CountItemsByRequestID(ctx context.Context, requestID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"pickupRequestId": requestID})
}

// SaveItem replaces the stored document, recomputing derived weights first.
// The write only lands on the version that was read; a newer version yields models.ErrConflict.
// The parent references are part of the filter so they can never be rewritten.
func (r *MongoPickupItemRepository) SaveItem(ctx context.Context, item *models.PickupItem) error {
	identity := bson.M{
		"_id":                item.ID,
		"pickupRequestId":    item.PickupRequestID,
		"pickupAssignmentId": item.PickupAssignmentID,
	}
	filter := bson.M{"version": item.Version}
	if item.Version == 0 {
		// documents written before versioning carry no version field
		filter["version"] = bson.M{"$in": bson.A{int64(0), nil}}
	}
	for k, v := range identity {
		filter[k] = v
	}

	read := item.Version
	item.ComputeWeights()
	item.UpdatedAt = time.Now()
	item.Version = read + 1

	res, err := r.collection.ReplaceOne(ctx, filter, item)
	if err != nil {
		item.Version = read
		return fmt.Errorf("save pickup item: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	item.Version = read
	n, err := r.collection.CountDocuments(ctx, identity)
	if err != nil {
		return fmt.Errorf("save pickup item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pickup item %s: %w", item.ID.Hex(), models.ErrNotFound)
	}
	return fmt.Errorf("pickup item %s at version %d: %w", item.ID.Hex(), read, models.ErrConflict)
}
