package orders

import "context"

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// Ledger stores orders. Items and total are written once by Insert; only the
// status changes afterwards.
type Ledger interface {
	Insert(ctx context.Context, o Order) error
	// Get returns ErrOrderNotFound when absent.
	Get(ctx context.Context, id string) (Order, error)
	// List returns the newest orders first.
	List(ctx context.Context, limit int) ([]Order, error)
	// TransitionStatus sets status to `to` only if it is currently `from`.
	// It reports false when the order is missing or its status differs.
	TransitionStatus(ctx context.Context, id string, from, to Status) (bool, error)
}

func clampLimit(n int) int {
	if n <= 0 || n > MaxListLimit {
		return DefaultListLimit
	}
	return n
}
