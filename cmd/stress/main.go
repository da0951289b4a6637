// Command stress drives concurrent order placement against a live MySQL
// instance to demonstrate that total decrements never exceed available
// stock.
package main

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Law-son/Smart-Ecommerce-System/internal/adapter/events"
	"github.com/Law-son/Smart-Ecommerce-System/internal/adapter/storage"
	"github.com/Law-son/Smart-Ecommerce-System/internal/cache"
	"github.com/Law-son/Smart-Ecommerce-System/internal/config"
	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
	"github.com/Law-son/Smart-Ecommerce-System/internal/core/service"
)

const (
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open mysql")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mysql")
	}

	store := storage.NewMySQLStore(db)

	productID, err := store.CreateProduct(ctx, domain.Product{
		CategoryID: 1,
		Name:       "stress-item",
		Price:      decimal.NewFromInt(10),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create stress product")
	}
	if err := store.SetInventory(ctx, productID, initialStock); err != nil {
		log.Fatal().Err(err).Msg("failed to seed stock")
	}

	inventory := service.NewInventoryService(store, cache.New[int64, int]("stock"))
	orders := service.NewOrderService(store, inventory,
		cache.New[int64, domain.Order]("order"),
		cache.New[int64, []domain.Order]("user_orders"),
		events.NoopPublisher{})

	var successCount, soldOutCount, errorCount atomic.Int32
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := orders.CreateOrder(ctx, userID, []domain.OrderLine{
				{ProductID: productID, Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
			default:
				errorCount.Add(1)
				log.Error().Err(err).Msg("order failed")
			}
		}(int64(i + 1))
	}
	wg.Wait()

	remaining, err := store.GetInventory(ctx, productID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read final stock")
	}

	log.Info().
		Int32("success", successCount.Load()).
		Int32("sold_out", soldOutCount.Load()).
		Int32("errors", errorCount.Load()).
		Int("final_stock", remaining.Quantity).
		Dur("elapsed", time.Since(start)).
		Msg("stress run complete")

	if successCount.Load() != initialStock || remaining.Quantity != 0 {
		log.Fatal().Msg("oversell detected")
	}
}
