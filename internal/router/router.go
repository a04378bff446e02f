package router

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/samudra-paket/erp/backend/internal/delivery"
	"github.com/samudra-paket/erp/backend/internal/handlers"
	"github.com/samudra-paket/erp/backend/internal/middleware"
	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/notification"
	"github.com/samudra-paket/erp/backend/internal/pickup"
	"github.com/samudra-paket/erp/backend/internal/repositories"
	"github.com/samudra-paket/erp/backend/pkg/config"
	"github.com/samudra-paket/erp/backend/pkg/logger"
	"github.com/samudra-paket/erp/backend/validators"
)

// Dependencies carries everything SetupRoutes needs to build the application graph
type Dependencies struct {
	Config    *config.Config
	DB        *config.DB
	Log       *logger.Logger
	Adapters  map[models.Channel]delivery.Adapter
	Validator *validators.CustomValidator // same instance as echo's e.Validator
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	log := deps.Log

	// AutoMigrate PostgreSQL models
	if err := deps.DB.Postgres.AutoMigrate(&models.ForwarderRate{}); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	log.Info("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	health := handlers.NewHealthHandler(deps.DB.Mongo, deps.DB.Postgres, deps.DB.Redis)
	e.GET("/health", health.HealthCheck)

	mongoDB := deps.DB.Mongo.Database(deps.Config.MongoDatabase)
	validator := deps.Validator

	// --- Initialize Repositories ---
	itemRepo := repositories.NewMongoPickupItemRepository(mongoDB)
	requestRepo := repositories.NewMongoPickupRequestRepository(mongoDB)
	rateRepo := repositories.NewPostgresForwarderRateRepository(deps.DB.Postgres)
	notificationRepo := repositories.NewMongoNotificationRepository(mongoDB)
	preferenceRepo := repositories.NewMongoNotificationPreferenceRepository(mongoDB)
	templateRepo := repositories.NewMongoNotificationTemplateRepository(mongoDB)

	var sequencer repositories.ItemSequencer
	if deps.DB.Redis != nil {
		sequencer = repositories.NewRedisSequencer(deps.DB.Redis, itemRepo)
		log.Info("Item codes drawn from Redis counters.")
	} else {
		sequencer = repositories.NewCountSequencer(itemRepo)
	}

	txRunner := repositories.NewDirectRunner()
	if deps.Config.MongoTransactions {
		txRunner = repositories.NewMongoTxRunner(deps.DB.Mongo)
		log.Info("Item and request writes run inside MongoDB transactions.")
	}

	// --- Initialize Services ---
	dispatcher := notification.NewDispatcher(templateRepo, preferenceRepo, notificationRepo, deps.Adapters, log)
	pickupEvents := notification.NewPickupEvents(dispatcher, log)
	workflow := pickup.NewWorkflow(itemRepo, requestRepo, rateRepo, sequencer, txRunner, pickupEvents, validator, log)
	inbox := notification.NewInbox(notificationRepo)
	preferences := notification.NewPreferences(preferenceRepo, validator, log)
	templates := notification.NewTemplates(templateRepo, validator, log)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.Config.JWTSecret))
	log.Info("JWT authentication middleware applied to /api/v1 group.")

	handlers.NewPickupItemHandler(workflow, log).RegisterPickupItemRoutes(api)
	log.Info("Pickup item routes configured.")

	handlers.NewForwarderRateHandler(rateRepo, log).RegisterForwarderRateRoutes(api)
	log.Info("Forwarder rate routes configured.")

	handlers.NewNotificationHandler(inbox, dispatcher, log).RegisterNotificationRoutes(api)
	handlers.NewPreferenceHandler(preferences, log).RegisterPreferenceRoutes(api)
	handlers.NewTemplateHandler(templates, log).RegisterTemplateRoutes(api)
	log.Info("Notification routes configured.")

	log.Info("All routes configured.")
	return nil
}
