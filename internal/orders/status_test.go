package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-inventory-orders/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusCompleted, StatusPending, true},
		{StatusCompleted, StatusCancelled, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCancelled, StatusCancelled, false},
		{Status("shipped"), StatusCancelled, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("shipped").Valid())
}

func setupPlaced(t *testing.T, stock, qty int) (*Engine, *inventory.MemStore, *MemLedger, Order) {
	t.Helper()
	store := inventory.NewMemStore()
	addProduct(t, store, "p1", "2.50", stock)
	ledger := NewMemLedger()
	e := newTestEngine(store, ledger)
	o, err := e.CreateOrder(context.Background(), order("Ani", item("p1", qty)), owner)
	require.NoError(t, err)
	return e, store, ledger, o
}

func TestCancelOrder_TwiceRestoresOnce(t *testing.T) {
	e, store, _, o := setupPlaced(t, 5, 3)
	ctx := context.Background()

	got, err := e.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, o.Items, got.Items)
	assert.Equal(t, 5, stockOf(t, store, "p1"))

	_, err = e.CancelOrder(ctx, o.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, 5, stockOf(t, store, "p1"))
}

func TestCancelOrder_NotFound(t *testing.T) {
	e := newTestEngine(inventory.NewMemStore(), NewMemLedger())
	_, err := e.CancelOrder(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelOrder_FromPending(t *testing.T) {
	e, store, _, o := setupPlaced(t, 4, 4)
	ctx := context.Background()

	_, err := e.MarkPending(ctx, o.ID)
	require.NoError(t, err)
	got, err := e.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, 4, stockOf(t, store, "p1"))
}

func TestCancelOrder_DeletedProductIsSkipped(t *testing.T) {
	store := inventory.NewMemStore()
	addProduct(t, store, "p1", "1.00", 5)
	addProduct(t, store, "p2", "1.00", 5)
	e := newTestEngine(store, NewMemLedger())
	ctx := context.Background()

	o, err := e.CreateOrder(ctx, order("Ani", item("p1", 2), item("p2", 2)), owner)
	require.NoError(t, err)
	require.NoError(t, store.DeleteProduct(ctx, "p2"))

	got, err := e.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, 5, stockOf(t, store, "p1"))
}

func TestCancelOrder_NoUpperBoundOnRestore(t *testing.T) {
	e, store, _, o := setupPlaced(t, 5, 5)
	ctx := context.Background()
	require.NoError(t, store.SetStock(ctx, "p1", 100))

	_, err := e.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 105, stockOf(t, store, "p1"))
}

func TestCancelOrder_ConcurrentCancelsRestoreOnce(t *testing.T) {
	e, store, _, o := setupPlaced(t, 10, 6)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, dupes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.CancelOrder(context.Background(), o.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, ErrAlreadyCancelled) {
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, dupes)
	assert.Equal(t, 10, stockOf(t, store, "p1"))
}

func TestCancelOrder_RetriesAfterConcurrentMarkPending(t *testing.T) {
	store := inventory.NewMemStore()
	addProduct(t, store, "p1", "1.00", 5)
	ledger := &hookLedger{MemLedger: NewMemLedger()}
	e := newTestEngine(store, ledger)
	ctx := context.Background()

	o, err := e.CreateOrder(ctx, order("Ani", item("p1", 2)), owner)
	require.NoError(t, err)

	ledger.beforeTransition = func(id string, attempt int) {
		if attempt == 1 {
			// order lain memindahkan ke pending tepat sebelum CAS pertama
			_, _ = ledger.MemLedger.TransitionStatus(ctx, id, StatusCompleted, StatusPending)
		}
	}
	got, err := e.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, 2, ledger.attempts)
	assert.Equal(t, 5, stockOf(t, store, "p1"))
}

func TestCancelOrder_LostToConcurrentCancelRevertsRestore(t *testing.T) {
	store := inventory.NewMemStore()
	addProduct(t, store, "p1", "1.00", 5)
	ledger := &hookLedger{MemLedger: NewMemLedger()}
	e := newTestEngine(store, ledger)
	ctx := context.Background()

	o, err := e.CreateOrder(ctx, order("Ani", item("p1", 2)), owner)
	require.NoError(t, err)

	ledger.beforeTransition = func(id string, attempt int) {
		if attempt == 1 {
			// pesaing sudah restore stok lalu flip status
			require.NoError(t, store.IncrementStock(ctx, "p1", 2))
			_, _ = ledger.MemLedger.TransitionStatus(ctx, id, StatusCompleted, StatusCancelled)
		}
	}
	_, err = e.CancelOrder(ctx, o.ID)
	require.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, 5, stockOf(t, store, "p1"), "stock restored exactly once")
}

func TestCancelOrder_RevertAfterStockSoldLogsOverRestore(t *testing.T) {
	store := inventory.NewMemStore()
	addProduct(t, store, "p1", "1.00", 5)
	ledger := &hookLedger{MemLedger: NewMemLedger()}
	log, buf := captureLogger()
	e := NewEngine(store, ledger, log, WithClock(func() time.Time { return fixedAt }))
	ctx := context.Background()

	o, err := e.CreateOrder(ctx, order("Ani", item("p1", 2)), owner)
	require.NoError(t, err)

	ledger.beforeTransition = func(id string, attempt int) {
		if attempt == 1 {
			require.NoError(t, store.IncrementStock(ctx, "p1", 2))
			_, _ = ledger.MemLedger.TransitionStatus(ctx, id, StatusCompleted, StatusCancelled)
			// seluruh stok terjual sebelum revert sempat jalan
			ok, err := store.TryDecrementStock(ctx, "p1", 7)
			require.NoError(t, err)
			require.True(t, ok)
		}
	}
	_, err = e.CancelOrder(ctx, o.ID)
	require.ErrorIs(t, err, ErrAlreadyCancelled)

	assert.Equal(t, 0, stockOf(t, store, "p1"))
	assert.Contains(t, buf.String(), "stock over-restored")
	assert.Contains(t, buf.String(), `"needs_reconcile":true`)
	assert.Contains(t, buf.String(), `"product_id":"p1"`)
}

func TestCancelOrder_RestoreFailureLeavesStatus(t *testing.T) {
	mem := inventory.NewMemStore()
	addProduct(t, mem, "p1", "1.00", 5)
	store := &hookStore{Store: mem}
	ledger := NewMemLedger()
	e := newTestEngine(store, ledger)
	ctx := context.Background()

	o, err := e.CreateOrder(ctx, order("Ani", item("p1", 2)), owner)
	require.NoError(t, err)

	store.incrementErr = errDB
	_, err = e.CancelOrder(ctx, o.ID)
	require.ErrorIs(t, err, errDB)

	got, err := ledger.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 3, stockOf(t, mem, "p1"))
}

func TestMarkPending(t *testing.T) {
	e, store, ledger, o := setupPlaced(t, 5, 1)
	ctx := context.Background()

	got, err := e.MarkPending(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 4, stockOf(t, store, "p1"), "no stock side effect")

	_, err = e.MarkPending(ctx, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending is not re-enterable")

	_, err = e.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	_, err = e.MarkPending(ctx, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, _ := ledger.Get(ctx, o.ID)
	assert.Equal(t, StatusCancelled, stored.Status, "failed transition leaves status unchanged")

	_, err = e.MarkPending(ctx, "nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMarkPending_LostCAS(t *testing.T) {
	store := inventory.NewMemStore()
	addProduct(t, store, "p1", "1.00", 5)
	ledger := &hookLedger{MemLedger: NewMemLedger()}
	e := newTestEngine(store, ledger)
	ctx := context.Background()

	o, err := e.CreateOrder(ctx, order("Ani", item("p1", 2)), owner)
	require.NoError(t, err)
	ledger.beforeTransition = func(id string, _ int) {
		_, _ = ledger.MemLedger.TransitionStatus(ctx, id, StatusCompleted, StatusCancelled)
	}

	_, err = e.MarkPending(ctx, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestListOrders_NewestFirst(t *testing.T) {
	store := inventory.NewMemStore()
	addProduct(t, store, "p1", "1.00", 100)
	tick := fixedAt
	e := newTestEngine(store, NewMemLedger(), WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		o, err := e.CreateOrder(ctx, order("Ani", item("p1", 1)), owner)
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}

	list, err := e.ListOrders(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{list[0].ID, list[1].ID, list[2].ID})

	list, err = e.ListOrders(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
