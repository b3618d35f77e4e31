package orders

import (
	"errors"

	"github.com/ariefcatur/go-inventory-orders/internal/inventory"
)

var (
	ErrProductNotFound   = inventory.ErrProductNotFound
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockConflict     = errors.New("stock update failed")
	ErrOrderNotFound     = errors.New("order not found")
	ErrAlreadyCancelled  = errors.New("order already cancelled")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrInvalidCustomer   = errors.New("customer_name must be 1-100 characters")
	ErrMissingCreator    = errors.New("creator identity required")
	ErrConcurrentUpdate  = errors.New("order modified concurrently")
)
