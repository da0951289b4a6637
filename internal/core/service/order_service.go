package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Law-son/Smart-Ecommerce-System/internal/cache"
	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
	"github.com/Law-son/Smart-Ecommerce-System/internal/metrics"
	"github.com/Law-son/Smart-Ecommerce-System/internal/port"
)

// OrderService orchestrates order placement and status changes and owns
// the order caches. Order creation validates every line before any
// mutation; the persist and the stock decrements happen in a single
// store transaction, so a failed decrement leaves no order row behind.
type OrderService struct {
	store     port.Store
	inventory *InventoryService
	byID      *cache.Cache[int64, domain.Order]
	byUser    *cache.Cache[int64, []domain.Order]
	events    port.EventPublisher
}

func NewOrderService(store port.Store, inventory *InventoryService, byID *cache.Cache[int64, domain.Order], byUser *cache.Cache[int64, []domain.Order], events port.EventPublisher) *OrderService {
	return &OrderService{
		store:     store,
		inventory: inventory,
		byID:      byID,
		byUser:    byUser,
		events:    events,
	}
}

// CreateOrder validates the lines, checks stock for each one, persists
// the order atomically with its stock decrements, and cascades cache
// invalidation. The returned id identifies the new PENDING order.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, lines []domain.OrderLine) (int64, error) {
	if len(lines) == 0 {
		return 0, domain.ErrEmptyOrder
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return 0, fmt.Errorf("%w: line quantity must be positive for product %d", domain.ErrValidation, l.ProductID)
		}
		if l.UnitPrice.IsNegative() {
			return 0, fmt.Errorf("%w: unit price cannot be negative for product %d", domain.ErrValidation, l.ProductID)
		}
	}

	// Validation before mutation: every line must pass before any stock
	// moves.
	for _, l := range lines {
		ok, err := s.inventory.CheckStock(ctx, l.ProductID, l.Quantity)
		if err != nil {
			return 0, err
		}
		if !ok {
			metrics.OrdersCreated.WithLabelValues("insufficient_stock").Inc()
			available, _ := s.inventory.AvailableStock(ctx, l.ProductID)
			return 0, fmt.Errorf("%w: product %d, requested %d, available %d",
				domain.ErrInsufficientStock, l.ProductID, l.Quantity, available)
		}
	}

	order := domain.Order{
		UserID: userID,
		Status: domain.OrderStatusPending,
		Total:  domain.LinesTotal(lines),
	}

	id, err := s.store.CreateOrderWithLines(ctx, order, lines)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			// The cached quantity was stale; another caller won the race.
			for _, l := range lines {
				s.inventory.InvalidateStock(l.ProductID)
			}
			metrics.OrdersCreated.WithLabelValues("insufficient_stock").Inc()
			return 0, err
		}
		metrics.OrdersCreated.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("create order: %w", err)
	}

	for _, l := range lines {
		s.inventory.InvalidateStock(l.ProductID)
	}
	s.byUser.Invalidate(userID)
	metrics.OrdersCreated.WithLabelValues("success").Inc()
	log.Info().Int64("order_id", id).Int64("user_id", userID).Str("total", order.Total.String()).Msg("order created")

	s.publish(ctx, port.OrderEvent{
		Type:    "order.created",
		OrderID: id,
		UserID:  userID,
		Status:  domain.OrderStatusPending,
		Total:   order.Total.String(),
	})
	return id, nil
}

// UpdateOrderStatus moves an order along the state machine and cascades
// cache invalidation to the order entry and the owner's order list.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("get order: %w", err)
	}

	if !order.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, status)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	s.byID.Invalidate(orderID)
	s.byUser.Invalidate(order.UserID)
	log.Info().Int64("order_id", orderID).Str("status", string(status)).Msg("order status updated")

	s.publish(ctx, port.OrderEvent{
		Type:    "order.status_changed",
		OrderID: orderID,
		UserID:  order.UserID,
		Status:  status,
	})
	return nil
}

// OrderByID returns a full order, cache-first.
func (s *OrderService) OrderByID(ctx context.Context, orderID int64) (domain.Order, error) {
	if order, ok := s.byID.Get(orderID); ok {
		return order, nil
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}

	s.byID.Put(orderID, order)
	return order, nil
}

// OrdersByUser returns a user's orders, cache-first, and populates the
// per-id cache from the fetched list.
func (s *OrderService) OrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	if orders, ok := s.byUser.Get(userID); ok {
		out := make([]domain.Order, len(orders))
		copy(out, orders)
		return out, nil
	}

	orders, err := s.store.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get orders by user: %w", err)
	}

	s.byUser.Put(userID, orders)
	for _, o := range orders {
		s.byID.Put(o.ID, o)
	}

	out := make([]domain.Order, len(orders))
	copy(out, orders)
	return out, nil
}

// AllOrders returns every order (admin view) and populates the per-id
// cache along the way.
func (s *OrderService) AllOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.store.GetAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all orders: %w", err)
	}

	for _, o := range orders {
		s.byID.Put(o.ID, o)
	}
	return orders, nil
}

func (s *OrderService) publish(ctx context.Context, event port.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Error().Err(err).Int64("order_id", event.OrderID).Str("type", event.Type).Msg("failed to publish order event")
	}
}
