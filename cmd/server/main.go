package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Law-son/Smart-Ecommerce-System/internal/adapter/events"
	"github.com/Law-son/Smart-Ecommerce-System/internal/adapter/handler"
	"github.com/Law-son/Smart-Ecommerce-System/internal/adapter/storage"
	"github.com/Law-son/Smart-Ecommerce-System/internal/cache"
	"github.com/Law-son/Smart-Ecommerce-System/internal/config"
	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
	"github.com/Law-son/Smart-Ecommerce-System/internal/core/service"
	"github.com/Law-son/Smart-Ecommerce-System/internal/port"
	"github.com/Law-son/Smart-Ecommerce-System/internal/tracing"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Info().Msg("starting storefront")

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mysql")
	}
	log.Info().Msg("connected to mysql")

	if cfg.JaegerEndpoint != "" {
		tp, err := tracing.InitTracer("storefront", cfg.JaegerEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init tracing")
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			tp.Shutdown(shutdownCtx)
		}()
	}

	var publisher port.EventPublisher = events.NoopPublisher{}
	if cfg.KafkaBroker != "" {
		kp := events.NewKafkaPublisher([]string{cfg.KafkaBroker}, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		log.Info().Str("broker", cfg.KafkaBroker).Str("topic", cfg.KafkaTopic).Msg("order events enabled")
	}

	store := storage.NewMySQLStore(db)

	// Explicit cache instances, process lifetime, owned here and handed
	// to the services.
	stockCache := cache.New[int64, int]("stock")
	ratingCache := cache.New[int64, float64]("rating")
	productCache := cache.New[int64, domain.Product]("product")
	listCache := cache.NewList[domain.Product]("product_list", cfg.CatalogTTL)
	orderCache := cache.New[int64, domain.Order]("order")
	userOrderCache := cache.New[int64, []domain.Order]("user_orders")

	inventory := service.NewInventoryService(store, stockCache)
	reviews := service.NewReviewService(store, ratingCache)
	catalog := service.NewCatalogService(store, productCache, listCache, reviews)
	orders := service.NewOrderService(store, inventory, orderCache, userOrderCache, publisher)

	// Warm the catalog cache so the first reads are served from memory.
	if products, err := catalog.GetAllProducts(ctx); err != nil {
		log.Error().Err(err).Msg("catalog warm-up failed")
	} else {
		log.Info().Int("products", len(products)).Msg("catalog warm-up")
	}

	httpHandler := handler.NewHTTPHandler(catalog, inventory, orders, reviews)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	db.Close()
	log.Info().Msg("stopped")
}
