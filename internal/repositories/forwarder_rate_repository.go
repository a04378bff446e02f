package repositories

import (
	"context"
	"fmt"

	"github.com/samudra-paket/erp/backend/internal/models"
	"gorm.io/gorm"
)

// ForwarderRateRepository defines the interface for forwarder tariff lookups
type ForwarderRateRepository interface {
	CreateRate(ctx context.Context, rate *models.ForwarderRate) error
	FindRatesForRoute(ctx context.Context, forwarderID string, origin, destination models.Area) ([]models.ForwarderRate, error)
}

type postgresForwarderRateRepository struct {
	db *gorm.DB
}

func NewPostgresForwarderRateRepository(db *gorm.DB) ForwarderRateRepository {
	return &postgresForwarderRateRepository{db: db}
}

func (r *postgresForwarderRateRepository) CreateRate(ctx context.Context, rate *models.ForwarderRate) error {
	if err := r.db.WithContext(ctx).Create(rate).Error; err != nil {
		return fmt.Errorf("insert forwarder rate: %w", err)
	}
	return nil
}

// FindRatesForRoute returns the active rates for a route, cheapest first.
// An empty forwarderID matches every forwarder; an empty city matches the whole province.
func (r *postgresForwarderRateRepository) FindRatesForRoute(ctx context.Context, forwarderID string, origin, destination models.Area) ([]models.ForwarderRate, error) {
	var rates []models.ForwarderRate

	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("origin_province = ? AND destination_province = ?", origin.Province, destination.Province)
	if forwarderID != "" {
		query = query.Where("forwarder_id = ?", forwarderID)
	}
	if origin.City != "" {
		query = query.Where("origin_city = ?", origin.City)
	}
	if destination.City != "" {
		query = query.Where("destination_city = ?", destination.City)
	}

	err := query.Order("price_per_kg ASC").Find(&rates).Error
	if err != nil {
		return nil, fmt.Errorf("find forwarder rates: %w", err)
	}
	return rates, nil
}
