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

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	SetDeliveryStatus(ctx context.Context, id primitive.ObjectID, channel models.Channel, status models.ChannelDelivery) error
	GetByRecipient(ctx context.Context, recipient string, filter models.NotificationFilter, page, limit int) ([]models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipient string) (int64, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID, at time.Time) error
	MarkAllAsRead(ctx context.Context, recipient string, at time.Time) (int64, error)
	Archive(ctx context.Context, id primitive.ObjectID, at time.Time) error
	DeleteNotification(ctx context.Context, id primitive.ObjectID) error
}

type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{collection: db.Collection(NotificationsCollection)}
}

func (r *mongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	if notification.DeliveryStatus == nil {
		notification.DeliveryStatus = map[models.Channel]models.ChannelDelivery{}
	}
	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		notification.ID = primitive.NilObjectID
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *mongoNotificationRepository) GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("notification %s: %w", id.Hex(), models.ErrNotFound)
		}
		return nil, err
	}
	return &n, nil
}

// SetDeliveryStatus writes one channel's outcome without touching the others
func (r *mongoNotificationRepository) SetDeliveryStatus(ctx context.Context, id primitive.ObjectID, channel models.Channel, status models.ChannelDelivery) error {
	update := bson.M{"$set": bson.M{
		"deliveryStatus." + string(channel): status,
		"updatedAt":                         time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("set %s delivery status: %w", channel, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("notification %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}

// GetByRecipient pages through a user's notifications, newest first. Archived
// notifications are hidden unless the filter asks for them.
func (r *mongoNotificationRepository) GetByRecipient(ctx context.Context, recipient string, filter models.NotificationFilter, page, limit int) ([]models.Notification, int64, error) {
	query := bson.M{"recipient": recipient}
	if filter.Status != "" {
		query["status"] = filter.Status
	} else {
		query["status"] = bson.M{"$ne": models.NotificationArchived}
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	skip := int64((page - 1) * limit)
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *mongoNotificationRepository) GetUnreadCount(ctx context.Context, recipient string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipient": recipient, "status": models.NotificationUnread})
}

// MarkAsRead only moves unread documents; read or archived ones are left as they are
func (r *mongoNotificationRepository) MarkAsRead(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.NotificationUnread},
		bson.M{"$set": bson.M{"status": models.NotificationRead, "readAt": at, "updatedAt": at}},
	)
	return err
}

func (r *mongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipient string, at time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient": recipient, "status": models.NotificationUnread},
		bson.M{"$set": bson.M{"status": models.NotificationRead, "readAt": at, "updatedAt": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoNotificationRepository) Archive(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.NotificationArchived, "archivedAt": at, "updatedAt": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("notification %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}

func (r *mongoNotificationRepository) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("notification %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}
