package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Law-son/Smart-Ecommerce-System/internal/cache"
	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
	"github.com/Law-son/Smart-Ecommerce-System/internal/port"
)

// InventoryService answers stock availability questions cache-first and
// owns all stock mutations together with the stock cache entries they
// invalidate.
type InventoryService struct {
	store port.Store
	stock *cache.Cache[int64, int]
}

func NewInventoryService(store port.Store, stock *cache.Cache[int64, int]) *InventoryService {
	return &InventoryService{store: store, stock: stock}
}

// CheckStock reports whether at least quantity units are available.
func (s *InventoryService) CheckStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}

	available, err := s.AvailableStock(ctx, productID)
	if err != nil {
		return false, err
	}
	return available >= quantity, nil
}

// AvailableStock returns the last-known quantity for a product. A miss
// reads through to the store and caches whatever it observes, zero
// included — a depleted product would otherwise miss on every check.
func (s *InventoryService) AvailableStock(ctx context.Context, productID int64) (int, error) {
	if quantity, ok := s.stock.Get(productID); ok {
		return quantity, nil
	}

	inv, err := s.store.GetInventory(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.stock.Put(productID, 0)
			return 0, nil
		}
		return 0, fmt.Errorf("get inventory: %w", err)
	}

	s.stock.Put(productID, inv.Quantity)
	return inv.Quantity, nil
}

// UpdateStock sets the absolute quantity for a product. The cache entry
// is rewritten only after the store confirms the write.
func (s *InventoryService) UpdateStock(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: stock quantity cannot be negative", domain.ErrValidation)
	}

	if err := s.store.SetInventory(ctx, productID, quantity); err != nil {
		return fmt.Errorf("set inventory: %w", err)
	}

	s.stock.Invalidate(productID)
	s.stock.Put(productID, quantity)
	log.Debug().Int64("product_id", productID).Int("quantity", quantity).Msg("stock updated")
	return nil
}

// ReduceStock decrements stock by quantity. The decrement-if-sufficient
// is pushed into the store so that concurrent callers can never drive the
// quantity negative; the cache entry is dropped only after the store
// confirms, and repopulated on the next read.
func (s *InventoryService) ReduceStock(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}

	ok, err := s.store.DecrementInventory(ctx, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: product %d, requested %d", domain.ErrInsufficientStock, productID, quantity)
	}

	s.stock.Invalidate(productID)
	return nil
}

// InvalidateStock drops the cached quantity for a product. The order
// service calls this after a transactional decrement it did not perform
// through ReduceStock.
func (s *InventoryService) InvalidateStock(productID int64) {
	s.stock.Invalidate(productID)
}
