package domain

import "time"

// Inventory tracks on-hand stock for a single product (1:1 with Product).
// Quantity never goes below zero; the store enforces that with a
// conditional decrement.
type Inventory struct {
	ProductID int64
	Quantity  int
	UpdatedAt time.Time
}
