package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
	"github.com/Law-son/Smart-Ecommerce-System/internal/port"
)

// mockStore is a mutex-guarded in-memory port.Store. Its conditional
// decrement and order transaction are atomic under the same lock the
// real store provides via SQL.
type mockStore struct {
	mu        sync.Mutex
	products  map[int64]domain.Product
	inventory map[int64]int
	orders    map[int64]domain.Order
	reviews   []domain.Review

	nextProductID int64
	nextOrderID   int64
	nextReviewID  int64

	listCalls   int
	searchCalls int
	getInvCalls int
	getOrdCalls int
	avgCalls    int

	failWith error // when set, every call fails
}

func newMockStore() *mockStore {
	return &mockStore{
		products:  make(map[int64]domain.Product),
		inventory: make(map[int64]int),
		orders:    make(map[int64]domain.Order),
	}
}

func (m *mockStore) addProduct(p domain.Product) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextProductID++
	p.ID = m.nextProductID
	m.products[p.ID] = p
	return p.ID
}

func (m *mockStore) setStock(productID int64, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inventory[productID] = quantity
}

func (m *mockStore) stockOf(productID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inventory[productID]
}

func (m *mockStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *mockStore) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return domain.Product{}, m.failWith
	}
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return p, nil
}

func (m *mockStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) SearchProducts(ctx context.Context, keyword string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	needle := strings.ToLower(keyword)
	var out []domain.Product
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	return m.addProduct(p), nil
}

func (m *mockStore) UpdateProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.products[p.ID]; !ok {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, p.ID)
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockStore) DeleteProduct(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	delete(m.products, id)
	return nil
}

func (m *mockStore) GetInventory(ctx context.Context, productID int64) (domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getInvCalls++
	if m.failWith != nil {
		return domain.Inventory{}, m.failWith
	}
	q, ok := m.inventory[productID]
	if !ok {
		return domain.Inventory{}, fmt.Errorf("%w: inventory for product %d", domain.ErrNotFound, productID)
	}
	return domain.Inventory{ProductID: productID, Quantity: q}, nil
}

func (m *mockStore) SetInventory(ctx context.Context, productID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.inventory[productID] = quantity
	return nil
}

func (m *mockStore) DecrementInventory(ctx context.Context, productID int64, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	if m.inventory[productID] < quantity {
		return false, nil
	}
	m.inventory[productID] -= quantity
	return true, nil
}

func (m *mockStore) CreateOrderWithLines(ctx context.Context, order domain.Order, lines []domain.OrderLine) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}

	// All decrements must succeed or nothing is written.
	for _, l := range lines {
		if m.inventory[l.ProductID] < l.Quantity {
			return 0, fmt.Errorf("%w: product %d, requested %d", domain.ErrInsufficientStock, l.ProductID, l.Quantity)
		}
	}
	for _, l := range lines {
		m.inventory[l.ProductID] -= l.Quantity
	}

	m.nextOrderID++
	order.ID = m.nextOrderID
	order.Lines = make([]domain.OrderLine, len(lines))
	copy(order.Lines, lines)
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
	}
	m.orders[order.ID] = order
	return order.ID, nil
}

func (m *mockStore) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getOrdCalls++
	if m.failWith != nil {
		return domain.Order{}, m.failWith
	}
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	return o, nil
}

func (m *mockStore) GetOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockStore) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockStore) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

func (m *mockStore) InsertReview(ctx context.Context, r domain.Review) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	m.nextReviewID++
	r.ID = m.nextReviewID
	m.reviews = append(m.reviews, r)
	return r.ID, nil
}

func (m *mockStore) ListReviewsByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []domain.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) AverageRating(ctx context.Context, productID int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avgCalls++
	if m.failWith != nil {
		return 0, m.failWith
	}
	sum, count := 0, 0
	for _, r := range m.reviews {
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

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []port.OrderEvent
}

func (p *mockPublisher) Publish(ctx context.Context, event port.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *mockPublisher) published() []port.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]port.OrderEvent, len(p.events))
	copy(out, p.events)
	return out
}

var _ port.Store = (*mockStore)(nil)
