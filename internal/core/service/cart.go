package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
)

// Cart is ephemeral pre-order state: an in-memory map of product id to
// order line holding a unit-price snapshot taken when the product was
// first added. It is never persisted; its lines are the direct input to
// OrderService.CreateOrder.
type Cart struct {
	inventory *InventoryService
	catalog   *CatalogService

	mu    sync.Mutex
	items map[int64]domain.OrderLine
}

func NewCart(inventory *InventoryService, catalog *CatalogService) *Cart {
	return &Cart{
		inventory: inventory,
		catalog:   catalog,
		items:     make(map[int64]domain.OrderLine),
	}
}

// AddItem merges quantity into the cart after re-validating stock for
// the new cumulative quantity.
func (c *Cart) AddItem(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cumulative := quantity
	existing, inCart := c.items[productID]
	if inCart {
		cumulative += existing.Quantity
	}

	ok, err := c.inventory.CheckStock(ctx, productID, cumulative)
	if err != nil {
		return err
	}
	if !ok {
		available, _ := c.inventory.AvailableStock(ctx, productID)
		return fmt.Errorf("%w: product %d, requested %d, available %d",
			domain.ErrInsufficientStock, productID, cumulative, available)
	}

	if inCart {
		existing.Quantity = cumulative
		c.items[productID] = existing
		return nil
	}

	product, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	c.items[productID] = domain.OrderLine{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}
	return nil
}

// UpdateItem sets the quantity for a line already in the cart. A
// quantity of zero (or less) removes the line.
func (c *Cart) UpdateItem(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(productID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.items[productID]
	if !ok {
		return fmt.Errorf("%w: product %d not in cart", domain.ErrNotFound, productID)
	}

	available, err := c.inventory.CheckStock(ctx, productID, quantity)
	if err != nil {
		return err
	}
	if !available {
		current, _ := c.inventory.AvailableStock(ctx, productID)
		return fmt.Errorf("%w: product %d, requested %d, available %d",
			domain.ErrInsufficientStock, productID, quantity, current)
	}

	line.Quantity = quantity
	c.items[productID] = line
	return nil
}

// RemoveItem drops a line from the cart.
func (c *Cart) RemoveItem(productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[productID]; !ok {
		return fmt.Errorf("%w: product %d not in cart", domain.ErrNotFound, productID)
	}
	delete(c.items, productID)
	return nil
}

// Items returns the cart lines ordered by product id.
func (c *Cart) Items() []domain.OrderLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]domain.OrderLine, 0, len(c.items))
	for _, l := range c.items {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

// Total sums the cart with exact decimal arithmetic.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, l := range c.items {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[int64]domain.OrderLine)
}

// Len returns the number of distinct products in the cart.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// TotalQuantity returns the summed quantity across all lines.
func (c *Cart) TotalQuantity() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, l := range c.items {
		total += l.Quantity
	}
	return total
}
