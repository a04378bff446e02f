package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type DeliveryConfig struct {
	Mode             string // live or log
	AWSRegion        string
	SESFromAddress   string
	SMSGatewayURL    string
	SMSAPIKey        string
	SMSSenderID      string
	SMSRatePerSecond float64
}

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresUrl             string
	MongoURI                string
	MongoDatabase           string
	MongoTransactions       bool
	RedisAddr               string
	JWTSecret               string
	Logging                 LoggingConfig
	Delivery                DeliveryConfig
}

// Load reads .env (if present) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresUrl:             getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "samudra_paket"),
		MongoTransactions:       getEnvBool("MONGO_TRANSACTIONS", false),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/samudra-paket.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Delivery: DeliveryConfig{
			Mode:             getEnv("DELIVERY_MODE", "log"),
			AWSRegion:        getEnv("AWS_REGION", "ap-southeast-1"),
			SESFromAddress:   getEnv("SES_FROM_ADDRESS", ""),
			SMSGatewayURL:    getEnv("SMS_GATEWAY_URL", ""),
			SMSAPIKey:        getEnv("SMS_API_KEY", ""),
			SMSSenderID:      getEnv("SMS_SENDER_ID", "SAMUDRA"),
			SMSRatePerSecond: getEnvFloat("SMS_RATE_PER_SECOND", 5),
		},
	}
}

// IsLiveDelivery reports whether real providers should be wired.
func (c *Config) IsLiveDelivery() bool {
	return c.Delivery.Mode == "live"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
