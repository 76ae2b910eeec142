package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nchikhaoui/gestistock/internal/config"
	"github.com/nchikhaoui/gestistock/internal/es"
	"github.com/nchikhaoui/gestistock/internal/events"
	"github.com/nchikhaoui/gestistock/internal/handlers"
	"github.com/nchikhaoui/gestistock/internal/models"
	"github.com/nchikhaoui/gestistock/internal/notify"
	"github.com/nchikhaoui/gestistock/internal/order"
	"github.com/nchikhaoui/gestistock/internal/stats"
	"github.com/nchikhaoui/gestistock/internal/token"
	httpserver "github.com/nchikhaoui/gestistock/internal/transport/http"
	"github.com/nchikhaoui/gestistock/pkg/db"
	"github.com/nchikhaoui/gestistock/pkg/logging"
	loggingmw "github.com/nchikhaoui/gestistock/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}
	if err := models.Migrate(database); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers)
	if producer == nil {
		logger.Warn("KAFKA_BROKERS not set, event publishing disabled")
	}

	notifier := &notify.Emitter{DB: database}
	orderSvc := &order.Service{DB: database, Notifier: notifier}
	tokens := &token.Service{DB: database, Secret: cfg.JWTSecret}

	deps := httpserver.Deps{
		AuthHandler:         &handlers.AuthHandler{DB: database, Tokens: tokens},
		ProductHandler:      &handlers.ProductHandler{DB: database, Producer: producer, Notifier: notifier},
		CategoryHandler:     &handlers.CategoryHandler{DB: database},
		SupplierHandler:     &handlers.SupplierHandler{DB: database},
		ClientHandler:       &handlers.ClientHandler{DB: database},
		LoyaltyHandler:      &handlers.LoyaltyHandler{DB: database},
		UserHandler:         &handlers.UserHandler{DB: database},
		OrderHandler:        &handlers.OrderHandler{Svc: orderSvc, Producer: producer},
		NotificationHandler: &handlers.NotificationHandler{Emitter: notifier},
		StatsHandler:        &handlers.StatsHandler{Agg: &stats.Aggregator{DB: database}},
		Tokens:              tokens,
	}

	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.SearchHandler = &handlers.SearchHandler{ES: esClient, Index: "produits"}
	} else {
		logger.Warn("ES_URL not set, product search disabled")
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
