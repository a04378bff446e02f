package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samudra-paket/erp/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationPreferenceRepository stores the one-per-user preference document
type NotificationPreferenceRepository interface {
	// FindOrCreate returns the user's preference, inserting defaults atomically when absent.
	FindOrCreate(ctx context.Context, defaults *models.NotificationPreference) (*models.NotificationPreference, error)
	SavePreference(ctx context.Context, pref *models.NotificationPreference) error
}

type mongoNotificationPreferenceRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationPreferenceRepository(db *mongo.Database) NotificationPreferenceRepository {
	return &mongoNotificationPreferenceRepository{collection: db.Collection(NotificationPreferencesCollection)}
}

func (r *mongoNotificationPreferenceRepository) FindOrCreate(ctx context.Context, defaults *models.NotificationPreference) (*models.NotificationPreference, error) {
	raw, err := bson.Marshal(defaults)
	if err != nil {
		return nil, err
	}
	var onInsert bson.M
	if err := bson.Unmarshal(raw, &onInsert); err != nil {
		return nil, err
	}
	delete(onInsert, "_id")
	delete(onInsert, "user")

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var pref models.NotificationPreference
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"user": defaults.User},
		bson.M{"$setOnInsert": onInsert},
		opts,
	).Decode(&pref)
	if err != nil {
		// Two first accesses racing on the unique index: the loser reads the winner's document.
		if mongo.IsDuplicateKeyError(err) {
			err = r.collection.FindOne(ctx, bson.M{"user": defaults.User}).Decode(&pref)
		}
		if err != nil {
			return nil, fmt.Errorf("load notification preference for %s: %w", defaults.User, err)
		}
	}
	return &pref, nil
}

func (r *mongoNotificationPreferenceRepository) SavePreference(ctx context.Context, pref *models.NotificationPreference) error {
	pref.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"user": pref.User}, pref)
	if err != nil {
		return fmt.Errorf("save notification preference: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("notification preference for %s: %w", pref.User, models.ErrNotFound)
	}
	return nil
}

// isNoDocuments is shared by the template and preference lookups.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
