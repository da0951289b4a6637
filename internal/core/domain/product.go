package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64
	CategoryID  int64
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	CreatedAt   time.Time
}

type Review struct {
	ID        int64
	UserID    int64
	ProductID int64
	Rating    int
	Comment   string
	CreatedAt time.Time
}
