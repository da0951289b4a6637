package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
	"github.com/Law-son/Smart-Ecommerce-System/internal/port"
)

// fakeStore is a mutex-guarded in-memory Store for exercising the HTTP
// surface end to end without MySQL.
type fakeStore struct {
	mu        sync.Mutex
	products  map[int64]domain.Product
	inventory map[int64]int
	orders    map[int64]domain.Order
	reviews   []domain.Review

	nextProductID int64
	nextOrderID   int64
	nextReviewID  int64
}

var _ port.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  make(map[int64]domain.Product),
		inventory: make(map[int64]int),
		orders:    make(map[int64]domain.Order),
	}
}

func (f *fakeStore) addProduct(p domain.Product, stock int) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextProductID++
	p.ID = f.nextProductID
	f.products[p.ID] = p
	f.inventory[p.ID] = stock
	return p.ID
}

func (f *fakeStore) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) SearchProducts(ctx context.Context, keyword string) ([]domain.Product, error) {
	all, _ := f.ListProducts(ctx)
	needle := strings.ToLower(keyword)
	var out []domain.Product
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	return f.addProduct(p, 0), nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, p domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, p.ID)
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeStore) DeleteProduct(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	delete(f.products, id)
	delete(f.inventory, id)
	return nil
}

func (f *fakeStore) GetInventory(ctx context.Context, productID int64) (domain.Inventory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	qty, ok := f.inventory[productID]
	if !ok {
		return domain.Inventory{}, fmt.Errorf("%w: inventory for product %d", domain.ErrNotFound, productID)
	}
	return domain.Inventory{ProductID: productID, Quantity: qty}, nil
}

func (f *fakeStore) SetInventory(ctx context.Context, productID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inventory[productID] = quantity
	return nil
}

func (f *fakeStore) DecrementInventory(ctx context.Context, productID int64, quantity int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inventory[productID] < quantity {
		return false, nil
	}
	f.inventory[productID] -= quantity
	return true, nil
}

func (f *fakeStore) CreateOrderWithLines(ctx context.Context, order domain.Order, lines []domain.OrderLine) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range lines {
		if f.inventory[l.ProductID] < l.Quantity {
			return 0, fmt.Errorf("%w: product %d", domain.ErrInsufficientStock, l.ProductID)
		}
	}
	for _, l := range lines {
		f.inventory[l.ProductID] -= l.Quantity
	}
	f.nextOrderID++
	order.ID = f.nextOrderID
	order.Lines = append([]domain.OrderLine(nil), lines...)
	f.orders[order.ID] = order
	return order.ID, nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	return o, nil
}

func (f *fakeStore) GetOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	o.Status = status
	f.orders[id] = o
	return nil
}

func (f *fakeStore) InsertReview(ctx context.Context, r domain.Review) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextReviewID++
	r.ID = f.nextReviewID
	f.reviews = append(f.reviews, r)
	return r.ID, nil
}

func (f *fakeStore) ListReviewsByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Review
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) AverageRating(ctx context.Context, productID int64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum, count := 0, 0
	for _, r := range f.reviews {
		if r.ProductID == productID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(sum) / float64(count), nil
}
