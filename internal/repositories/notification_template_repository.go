package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/samudra-paket/erp/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// NotificationTemplateRepository defines template storage keyed by the unique code
type NotificationTemplateRepository interface {
	CreateTemplate(ctx context.Context, tpl *models.NotificationTemplate) error
	GetTemplateByCode(ctx context.Context, code string) (*models.NotificationTemplate, error)
	SaveTemplate(ctx context.Context, tpl *models.NotificationTemplate) error
}

type mongoNotificationTemplateRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationTemplateRepository(db *mongo.Database) NotificationTemplateRepository {
	return &mongoNotificationTemplateRepository{collection: db.Collection(NotificationTemplatesCollection)}
}

func (r *mongoNotificationTemplateRepository) CreateTemplate(ctx context.Context, tpl *models.NotificationTemplate) error {
	tpl.ID = primitive.NewObjectID()
	now := time.Now()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, tpl); err != nil {
		tpl.ID = primitive.NilObjectID
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("notification template %s: %w", tpl.Code, models.ErrDuplicateCode)
		}
		return fmt.Errorf("insert notification template: %w", err)
	}
	return nil
}

func (r *mongoNotificationTemplateRepository) GetTemplateByCode(ctx context.Context, code string) (*models.NotificationTemplate, error) {
	var tpl models.NotificationTemplate
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&tpl)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("notification template %s: %w", code, models.ErrNotFound)
		}
		return nil, err
	}
	return &tpl, nil
}

// SaveTemplate replaces the template content; code and id are the match keys and stay fixed
func (r *mongoNotificationTemplateRepository) SaveTemplate(ctx context.Context, tpl *models.NotificationTemplate) error {
	tpl.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": tpl.ID, "code": tpl.Code}, tpl)
	if err != nil {
		return fmt.Errorf("save notification template: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("notification template %s: %w", tpl.Code, models.ErrNotFound)
	}
	return nil
}
