package orders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-inventory-orders/internal/inventory"
	"github.com/ariefcatur/go-inventory-orders/internal/logx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	owner   = Creator{ID: "u-1", Username: "owner"}
	fixedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func addProduct(t testing.TB, s *inventory.MemStore, id, price string, stock int) {
	t.Helper()
	require.NoError(t, s.InsertProduct(context.Background(), inventory.Product{
		ID: id, Name: "Product " + id, Price: money(price), Stock: stock, Active: true, CreatedAt: fixedAt,
	}))
}

func stockOf(t testing.TB, s *inventory.MemStore, id string) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func newTestEngine(products inventory.Store, ledger Ledger, opts ...Option) *Engine {
	n := 0
	var mu sync.Mutex
	base := []Option{
		WithClock(func() time.Time { return fixedAt }),
		WithIDs(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("order-%03d", n)
		}),
	}
	return NewEngine(products, ledger, logx.Discard(), append(base, opts...)...)
}

func order(name string, items ...ItemInput) CreateInput {
	return CreateInput{Customer: Customer{Name: name}, Items: items}
}

func item(id string, qty int) ItemInput { return ItemInput{ProductID: id, Quantity: qty} }

// hookStore lets a test run code just before a conditional decrement,
// e.g. to simulate a competing order draining stock.
type hookStore struct {
	inventory.Store
	beforeDecrement func(id string)
	incrementErr    error
}

func (h *hookStore) TryDecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	if h.beforeDecrement != nil {
		h.beforeDecrement(id)
	}
	return h.Store.TryDecrementStock(ctx, id, qty)
}

func (h *hookStore) IncrementStock(ctx context.Context, id string, qty int) error {
	if h.incrementErr != nil {
		return h.incrementErr
	}
	return h.Store.IncrementStock(ctx, id, qty)
}

type failingLedger struct {
	*MemLedger
	insertErr error
}

func (f *failingLedger) Insert(ctx context.Context, o Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.MemLedger.Insert(ctx, o)
}

// hookLedger runs beforeTransition ahead of every compare-and-set.
type hookLedger struct {
	*MemLedger
	beforeTransition func(id string, attempt int)
	attempts         int
}

func (h *hookLedger) TransitionStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	h.attempts++
	if h.beforeTransition != nil {
		h.beforeTransition(id, h.attempts)
	}
	return h.MemLedger.TransitionStatus(ctx, id, from, to)
}

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) Emit(_ context.Context, eventType string, o Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType+":"+o.ID)
}

func (r *recordingSink) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

var errDB = errors.New("db unavailable")

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logx.NewWithWriter(&buf, "debug"), &buf
}

func errorsIsAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
