package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Active      bool            `json:"is_active"`
	CategoryID  *string         `json:"category_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

type Category struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type StockOpType string

const (
	StockIncrease StockOpType = "increase"
	StockDecrease StockOpType = "decrease"
)

// StockOperation is the audit record of a manual stock adjustment.
type StockOperation struct {
	ID                  string      `json:"id"`
	ProductID           string      `json:"product_id"`
	Type                StockOpType `json:"type"`
	Quantity            int         `json:"quantity"`
	Reason              string      `json:"reason"`
	PerformedByID       string      `json:"performed_by_id"`
	PerformedByUsername string      `json:"performed_by_username"`
	Timestamp           time.Time   `json:"timestamp"`
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Active      *bool           `json:"is_active,omitempty"`
	CategoryID  *string         `json:"category_id,omitempty"`
}

// ProductPatch: nil = field tidak diubah.
type ProductPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Active      *bool            `json:"is_active,omitempty"`
	CategoryID  *string          `json:"category_id,omitempty"`
}

func (p ProductPatch) empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Stock == nil && p.Active == nil && p.CategoryID == nil
}

type CategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type CategoryPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p CategoryPatch) empty() bool { return p.Name == nil && p.Description == nil }

type ListFilter struct {
	Skip       int
	Limit      int
	ActiveOnly bool
	CategoryID string
	Search     string
}

const (
	DefaultListLimit = 25
	MaxListLimit     = 200
)

func (f ListFilter) normalized() ListFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}
