package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	Name    string  `json:"customer_name"`
	Phone   *string `json:"customer_phone,omitempty"`
	Email   *string `json:"customer_email,omitempty"`
	Address *string `json:"customer_address,omitempty"`
}

// LineItem snapshots the product name and price at order time; ProductID is
// a weak reference and may outlive the product.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID string `json:"id"`
	Customer
	Items             []LineItem      `json:"items"`
	Total             decimal.Decimal `json:"total"`
	CreatedAt         time.Time       `json:"created_at"`
	CreatedByID       string          `json:"created_by_id"`
	CreatedByUsername string          `json:"created_by_username"`
	Status            Status          `json:"status"`
}

type ItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateInput struct {
	Customer
	Items []ItemInput `json:"items"`
}

// Creator is the authenticated caller, captured on the order at creation.
type Creator struct {
	ID       string
	Username string
}
