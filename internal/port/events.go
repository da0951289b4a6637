package port

import (
	"context"

	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
)

// OrderEvent describes an order lifecycle change for downstream consumers.
type OrderEvent struct {
	Type    string             `json:"type"` // order.created, order.status_changed
	OrderID int64              `json:"order_id"`
	UserID  int64              `json:"user_id"`
	Status  domain.OrderStatus `json:"status"`
	Total   string             `json:"total,omitempty"`
}

// EventPublisher emits order events. Publishing is best-effort: a failed
// publish never rolls back the order it describes.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}
