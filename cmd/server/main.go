package main

import (
	"context"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	"github.com/samudra-paket/erp/backend/internal/delivery"
	"github.com/samudra-paket/erp/backend/internal/models"
	"github.com/samudra-paket/erp/backend/internal/repositories"
	"github.com/samudra-paket/erp/backend/internal/router"
	"github.com/samudra-paket/erp/backend/pkg/config"
	"github.com/samudra-paket/erp/backend/pkg/firebase"
	"github.com/samudra-paket/erp/backend/pkg/logger"
	"github.com/samudra-paket/erp/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	appLog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		appLog.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repositories.EnsureIndexes(ctx, db.Mongo.Database(cfg.MongoDatabase)); err != nil {
		appLog.Fatalf("Failed to create MongoDB indexes: %v", err)
	}

	adapters, err := deliveryAdapters(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatalf("Failed to initialize delivery adapters: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	validator := validators.NewValidator()
	e.Validator = validator

	// Setup global middleware
	config.SetupMiddleware(e, appLog.Logger)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, router.Dependencies{
		Config:    cfg,
		DB:        db,
		Log:       appLog,
		Adapters:  adapters,
		Validator: validator,
	}); err != nil {
		appLog.Fatalf("Failed to set up routes: %v", err)
	}

	// Start server
	appLog.WithFields(logger.Fields{"port": cfg.Port, "env": cfg.Env}).Info("starting server")
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

// deliveryAdapters wires real providers in live mode and log-only adapters otherwise.
func deliveryAdapters(ctx context.Context, cfg *config.Config, appLog *logger.Logger) (map[models.Channel]delivery.Adapter, error) {
	if !cfg.IsLiveDelivery() {
		logAdapter := delivery.NewLogAdapter(appLog)
		appLog.Info("Delivery mode is log; external notifications are written to the log only.")
		return map[models.Channel]delivery.Adapter{
			models.ChannelEmail: logAdapter,
			models.ChannelSMS:   logAdapter,
			models.ChannelPush:  logAdapter,
		}, nil
	}

	adapters := map[models.Channel]delivery.Adapter{}

	email, err := delivery.NewSESEmailAdapter(ctx, cfg.Delivery.AWSRegion, cfg.Delivery.SESFromAddress)
	if err != nil {
		return nil, err
	}
	adapters[models.ChannelEmail] = email

	if cfg.Delivery.SMSGatewayURL != "" {
		adapters[models.ChannelSMS] = delivery.NewSMSGatewayAdapter(
			cfg.Delivery.SMSGatewayURL,
			cfg.Delivery.SMSAPIKey,
			cfg.Delivery.SMSSenderID,
			cfg.Delivery.SMSRatePerSecond,
			appLog,
		)
	} else {
		appLog.Warn("SMS_GATEWAY_URL not set; SMS notifications will be recorded as undelivered.")
	}

	fb, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		return nil, err
	}
	adapters[models.ChannelPush] = delivery.NewFCMPushAdapter(fb.Messaging)

	return adapters, nil
}
