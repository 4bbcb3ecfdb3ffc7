package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/frunko/frunko/internal/models"
	"github.com/frunko/frunko/internal/paytm"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Port     string
	LogLevel string

	DatabaseURL string

	JWTSecret []byte

	KafkaAddress string

	ESURL      string
	ESUser     string
	ESPassword string

	Paytm       paytm.Config
	FrontendURL string
}

func must(v string, name string) string {
	if v == "" {
		log.Fatalf("missing required env %s", name)
	}
	return v
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return &Config{
		Port:     envDefault("SERVER_PORT", "8080"),
		LogLevel: envDefault("LOG_LEVEL", "info"),

		DatabaseURL: must(os.Getenv("DATABASE_URL"), "DATABASE_URL"),

		JWTSecret: []byte(must(os.Getenv("JWT_SECRET"), "JWT_SECRET")),

		KafkaAddress: os.Getenv("KAFKA_ADDRESS"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		Paytm: paytm.Config{
			MerchantID:  must(os.Getenv("PAYTM_MID"), "PAYTM_MID"),
			MerchantKey: must(os.Getenv("PAYTM_KEY"), "PAYTM_KEY"),
			Website:     envDefault("PAYTM_WEBSITE", "DEFAULT"),
			GatewayURL:  must(os.Getenv("PAYTM_GATEWAY_URL"), "PAYTM_GATEWAY_URL"),
			CallbackURL: must(os.Getenv("PAYTM_CALLBACK_URL"), "PAYTM_CALLBACK_URL"),
		},
		FrontendURL: must(os.Getenv("FRONTEND_URL"), "FRONTEND_URL"),
	}
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func InitDB(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := db.AutoMigrate(&models.Coupon{}, &models.Order{}, &models.OrderItem{}, &models.User{}); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
