package port

import (
	"context"

	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
)

// Store is the persistence collaborator consumed by the services. Reads
// return domain.ErrNotFound (wrapped) for unknown ids; every other
// failure is a backing-store error and must be surfaced as-is.
type Store interface {
	// GetProduct retrieves a single product by id.
	GetProduct(ctx context.Context, id int64) (domain.Product, error)

	// ListProducts returns the full catalog.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// SearchProducts performs a case-insensitive substring search on name.
	SearchProducts(ctx context.Context, keyword string) ([]domain.Product, error)

	CreateProduct(ctx context.Context, p domain.Product) (int64, error)
	UpdateProduct(ctx context.Context, p domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	// GetInventory retrieves the stock row for a product.
	GetInventory(ctx context.Context, productID int64) (domain.Inventory, error)

	// SetInventory overwrites the stock quantity for a product.
	SetInventory(ctx context.Context, productID int64, quantity int) error

	// DecrementInventory atomically decreases stock, returning false when
	// the remaining quantity is insufficient. Quantity never goes negative.
	DecrementInventory(ctx context.Context, productID int64, quantity int) (bool, error)

	// CreateOrderWithLines persists the order header, all lines, and the
	// per-line stock decrements as one atomic unit. It returns
	// domain.ErrInsufficientStock (wrapped) and persists nothing when any
	// decrement cannot be satisfied.
	CreateOrderWithLines(ctx context.Context, order domain.Order, lines []domain.OrderLine) (int64, error)

	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	GetAllOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error

	InsertReview(ctx context.Context, r domain.Review) (int64, error)
	ListReviewsByProduct(ctx context.Context, productID int64) ([]domain.Review, error)

	// AverageRating returns the mean rating over persisted reviews, 0.0
	// when the product has none.
	AverageRating(ctx context.Context, productID int64) (float64, error)
}
