package models

import "time"

// ForwarderRate is a third-party courier tariff for one route (PostgreSQL)
type ForwarderRate struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	ForwarderID         string    `json:"forwarderId" gorm:"size:64;index:idx_rate_route"`
	OriginProvince      string    `json:"originProvince" gorm:"size:100;index:idx_rate_route"`
	OriginCity          string    `json:"originCity" gorm:"size:100;index:idx_rate_route"`
	DestinationProvince string    `json:"destinationProvince" gorm:"size:100;index:idx_rate_route"`
	DestinationCity     string    `json:"destinationCity" gorm:"size:100;index:idx_rate_route"`
	PricePerKg          float64   `json:"pricePerKg"`
	MinWeight           float64   `json:"minWeight" gorm:"default:1"`
	EstimatedDays       string    `json:"estimatedDays" gorm:"size:20"` // "2-3"
	IsActive            bool      `json:"isActive" gorm:"default:true;index"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Area identifies a route endpoint; an empty City matches any city in the province
type Area struct {
	Province string `json:"province" query:"province" validate:"required"`
	City     string `json:"city,omitempty" query:"city"`
}

// RateQuote is a forwarder rate priced against an item's chargeable weight
type RateQuote struct {
	Rate           ForwarderRate `json:"rate"`
	BilledWeight   float64       `json:"billedWeight"`
	EstimatedPrice float64       `json:"estimatedPrice"`
}
