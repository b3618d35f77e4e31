package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ariefcatur/go-inventory-orders/internal/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxTransitionAttempts bounds the compare-and-set retry in CancelOrder.
const maxTransitionAttempts = 3

// Engine orchestrates order creation and status changes. It holds no locks:
// stock consistency rests entirely on inventory.Store.TryDecrementStock.
type Engine struct {
	products inventory.Store
	ledger   Ledger
	events   EventSink
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Engine)

func WithEvents(sink EventSink) Option { return func(e *Engine) { e.events = sink } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithIDs(newID func() string) Option { return func(e *Engine) { e.newID = newID } }

func NewEngine(products inventory.Store, ledger Ledger, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		products: products,
		ledger:   ledger,
		events:   nopSink{},
		log:      log,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

type reservation struct {
	productID string
	qty       int
}

// CreateOrder reserves stock line by line in request order, then persists the
// order as completed. Any failure after a reservation reverses every
// reservation made by this call before the error is returned.
func (e *Engine) CreateOrder(ctx context.Context, in CreateInput, by Creator) (Order, error) {
	if err := validateCreate(in, by); err != nil {
		return Order{}, err
	}
	// begitu mulai, jalan sampai sukses atau kompensasi selesai
	ctx = context.WithoutCancel(ctx)

	var (
		reserved = make([]reservation, 0, len(in.Items))
		items    = make([]LineItem, 0, len(in.Items))
		total    = decimal.Zero
	)
	fail := func(err error) (Order, error) {
		e.compensate(ctx, reserved, err)
		return Order{}, err
	}

	for _, req := range in.Items {
		p, err := e.products.FindActiveByID(ctx, req.ProductID)
		if errors.Is(err, inventory.ErrProductNotFound) {
			return fail(fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductID))
		}
		if err != nil {
			return fail(fmt.Errorf("lookup product %s: %w", req.ProductID, err))
		}
		if p.Stock < req.Quantity {
			return fail(fmt.Errorf("%w for %s: requested %d, available %d",
				ErrInsufficientStock, p.Name, req.Quantity, p.Stock))
		}

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2)
		total = total.Add(subtotal)

		ok, err := e.products.TryDecrementStock(ctx, p.ID, req.Quantity)
		if err != nil {
			return fail(fmt.Errorf("reserve stock for %s: %w", p.Name, err))
		}
		if !ok {
			return fail(fmt.Errorf("%w for %s", ErrStockConflict, p.Name))
		}

		reserved = append(reserved, reservation{productID: p.ID, qty: req.Quantity})
		items = append(items, LineItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    req.Quantity,
			Price:       p.Price,
			Subtotal:    subtotal,
		})
	}

	o := Order{
		ID: e.newID(),
		Customer: Customer{
			Name:    strings.TrimSpace(in.Name),
			Phone:   in.Phone,
			Email:   in.Email,
			Address: in.Address,
		},
		Items:             items,
		Total:             total.Round(2),
		CreatedAt:         e.now(),
		CreatedByID:       by.ID,
		CreatedByUsername: by.Username,
		Status:            StatusCompleted,
	}
	if err := e.ledger.Insert(ctx, o); err != nil {
		return fail(fmt.Errorf("persist order: %w", err))
	}

	e.log.Info("order created", "order_id", o.ID, "items", len(o.Items), "total", o.Total.StringFixed(2), "by", by.Username)
	e.events.Emit(ctx, EventOrderCreated, o)
	return o, nil
}

// compensate is best effort: failures are logged, never returned, so the
// caller always sees the error that aborted the order.
func (e *Engine) compensate(ctx context.Context, reserved []reservation, cause error) {
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := e.products.IncrementStock(ctx, r.productID, r.qty); err != nil {
			e.log.Error("order compensation failed",
				"product_id", r.productID, "qty", r.qty, "err", err, "cause", cause)
		}
	}
	if len(reserved) > 0 {
		e.log.Warn("order aborted, reservations released", "reservations", len(reserved), "cause", cause)
	}
}

func validateCreate(in CreateInput, by Creator) error {
	if len(in.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: product %s", ErrInvalidQuantity, it.ProductID)
		}
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(in.Name)); n < 1 || n > 100 {
		return ErrInvalidCustomer
	}
	if by.ID == "" || by.Username == "" {
		return ErrMissingCreator
	}
	return nil
}

// CancelOrder restores stock for every line item and then marks the order
// cancelled. Repeated cancellation fails with ErrAlreadyCancelled.
func (e *Engine) CancelOrder(ctx context.Context, id string) (Order, error) {
	ctx = context.WithoutCancel(ctx)

	o, err := e.ledger.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(o.Status, StatusCancelled) {
		return Order{}, fmt.Errorf("%w: %s", ErrAlreadyCancelled, id)
	}

	restored, err := e.restore(ctx, o.Items)
	if err != nil {
		e.revertRestore(ctx, o.ID, restored)
		return Order{}, fmt.Errorf("restore stock for order %s: %w", id, err)
	}

	from := o.Status
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		ok, err := e.ledger.TransitionStatus(ctx, id, from, StatusCancelled)
		if err != nil {
			e.revertRestore(ctx, o.ID, restored)
			return Order{}, fmt.Errorf("cancel order %s: %w", id, err)
		}
		if ok {
			o.Status = StatusCancelled
			e.log.Info("order cancelled", "order_id", id, "from", from, "items", len(o.Items))
			e.events.Emit(ctx, EventOrderCancelled, o)
			return o, nil
		}

		// status berubah di tengah jalan, baca ulang
		cur, err := e.ledger.Get(ctx, id)
		if err != nil {
			e.revertRestore(ctx, o.ID, restored)
			return Order{}, err
		}
		if cur.Status == StatusCancelled {
			e.revertRestore(ctx, o.ID, restored)
			return Order{}, fmt.Errorf("%w: %s", ErrAlreadyCancelled, id)
		}
		from = cur.Status
	}

	e.revertRestore(ctx, o.ID, restored)
	return Order{}, fmt.Errorf("%w: %s", ErrConcurrentUpdate, id)
}

// restore increments stock per line item and returns what it restored, so a
// partial restore can be reverted.
func (e *Engine) restore(ctx context.Context, items []LineItem) ([]reservation, error) {
	done := make([]reservation, 0, len(items))
	for _, it := range items {
		if err := e.products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			return done, err
		}
		done = append(done, reservation{productID: it.ProductID, qty: it.Quantity})
	}
	return done, nil
}

func (e *Engine) revertRestore(ctx context.Context, orderID string, restored []reservation) {
	for i := len(restored) - 1; i >= 0; i-- {
		r := restored[i]
		ok, err := e.products.TryDecrementStock(ctx, r.productID, r.qty)
		switch {
		case err != nil:
			e.log.Error("revert stock restoration failed",
				"order_id", orderID, "product_id", r.productID, "qty", r.qty, "err", err)
		case !ok:
			// restored units were already sold; stock stays above truth
			e.log.Error("stock over-restored: restored units already consumed",
				"order_id", orderID, "product_id", r.productID, "qty", r.qty, "needs_reconcile", true)
		}
	}
}

// MarkPending moves a completed order to pending. No stock side effect.
func (e *Engine) MarkPending(ctx context.Context, id string) (Order, error) {
	o, err := e.ledger.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(o.Status, StatusPending) {
		return Order{}, fmt.Errorf("%w: only completed orders can be moved to pending (status %s)", ErrInvalidTransition, o.Status)
	}
	ok, err := e.ledger.TransitionStatus(ctx, id, StatusCompleted, StatusPending)
	if err != nil {
		return Order{}, fmt.Errorf("mark order %s pending: %w", id, err)
	}
	if !ok {
		return Order{}, fmt.Errorf("%w: order %s changed concurrently", ErrInvalidTransition, id)
	}
	o.Status = StatusPending
	e.log.Info("order pending", "order_id", id)
	e.events.Emit(ctx, EventOrderPending, o)
	return o, nil
}

func (e *Engine) GetOrder(ctx context.Context, id string) (Order, error) {
	return e.ledger.Get(ctx, id)
}

// ListOrders returns the most recent orders first.
func (e *Engine) ListOrders(ctx context.Context, limit int) ([]Order, error) {
	return e.ledger.List(ctx, limit)
}
