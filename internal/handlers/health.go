package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// HealthHandler reports the reachability of the backing stores
type HealthHandler struct {
	mongo    *mongo.Client
	postgres *gorm.DB
	redis    *redis.Client
}

func NewHealthHandler(mongoClient *mongo.Client, postgres *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{mongo: mongoClient, postgres: postgres, redis: redisClient}
}

func (h *HealthHandler) HealthCheck(e echo.Context) error {
	ctx, cancel := context.WithTimeout(e.Request().Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	if h.mongo != nil {
		checks["mongodb"] = statusOf(h.mongo.Ping(ctx, nil))
	}
	if h.postgres != nil {
		if sqlDB, err := h.postgres.DB(); err != nil {
			checks["postgres"] = statusOf(err)
		} else {
			checks["postgres"] = statusOf(sqlDB.PingContext(ctx))
		}
	}
	if h.redis != nil {
		checks["redis"] = statusOf(h.redis.Ping(ctx).Err())
	}
	for _, s := range checks {
		if s != "up" {
			healthy = false
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	return e.JSON(status, map[string]interface{}{
		"status":  overall,
		"service": "samudra-paket-api",
		"checks":  checks,
	})
}

func statusOf(err error) string {
	if err != nil {
		return "down"
	}
	return "up"
}
