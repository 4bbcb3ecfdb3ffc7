package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/frunko/frunko/internal/config"
	"github.com/frunko/frunko/internal/es"
	"github.com/frunko/frunko/internal/events"
	"github.com/frunko/frunko/internal/httpserver"
	"github.com/frunko/frunko/internal/logging"
	"github.com/frunko/frunko/internal/middleware"
	"github.com/frunko/frunko/internal/paytm"
	"github.com/frunko/frunko/internal/repo"
	"github.com/frunko/frunko/internal/search"
	"github.com/frunko/frunko/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *events.Producer
	if cfg.KafkaAddress != "" {
		producer = events.NewProducer([]string{cfg.KafkaAddress})
	}

	var indexer *search.OrderIndexer
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer = &search.OrderIndexer{ES: esClient, Index: "orders"}
	}

	gormRepo := &repo.GormRepo{DB: db}
	couponSvc := &service.CouponService{Repo: gormRepo}
	orderSvc := &service.OrderService{Repo: gormRepo, Coupons: couponSvc, Producer: producer, Indexer: indexer}
	paymentSvc := &service.PaymentService{Repo: gormRepo, Client: paytm.NewClient(cfg.Paytm), Producer: producer, Indexer: indexer}
	userSvc := &service.UserService{Repo: gormRepo}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID(), echomw.CORS())
	e.Use(middleware.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		CouponHandler:  &httpserver.CouponHTTP{Svc: couponSvc},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderSvc},
		PaymentHandler: &httpserver.PaymentHTTP{Svc: paymentSvc, FrontendURL: cfg.FrontendURL},
		UserHandler:    &httpserver.UserHTTP{Svc: userSvc},
		JWTSecret:      cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
