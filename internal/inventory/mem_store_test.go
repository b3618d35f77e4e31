package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *MemStore, id string, stock int, active bool) {
	t.Helper()
	require.NoError(t, s.InsertProduct(context.Background(), Product{
		ID: id, Name: "item-" + id, Price: decimal.RequireFromString("10.00"), Stock: stock, Active: active,
	}))
}

func TestMemStore_FindActiveByID(t *testing.T) {
	s := NewMemStore()
	seed(t, s, "on", 1, true)
	seed(t, s, "off", 1, false)
	ctx := context.Background()

	p, err := s.FindActiveByID(ctx, "on")
	require.NoError(t, err)
	assert.Equal(t, "on", p.ID)

	_, err = s.FindActiveByID(ctx, "off")
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = s.FindActiveByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemStore_TryDecrementStock(t *testing.T) {
	s := NewMemStore()
	seed(t, s, "p", 3, true)
	ctx := context.Background()

	ok, err := s.TryDecrementStock(ctx, "p", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TryDecrementStock(ctx, "p", 2)
	require.NoError(t, err)
	assert.False(t, ok, "only 1 left")

	ok, _ = s.TryDecrementStock(ctx, "missing", 1)
	assert.False(t, ok)

	p, _ := s.GetProduct(ctx, "p")
	assert.Equal(t, 1, p.Stock)
}

func TestMemStore_TryDecrementStock_LastUnitRace(t *testing.T) {
	s := NewMemStore()
	seed(t, s, "p", 1, true)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.TryDecrementStock(context.Background(), "p", 1); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	p, _ := s.GetProduct(context.Background(), "p")
	assert.Equal(t, 0, p.Stock)
}

func TestMemStore_IncrementMissingIsNoop(t *testing.T) {
	s := NewMemStore()
	assert.NoError(t, s.IncrementStock(context.Background(), "ghost", 5))
	_, err := s.GetProduct(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemStore_ListProducts(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	cat := "c1"
	for i, name := range []string{"Banana", "apple pie", "Apple", "Cherry"} {
		p := Product{ID: string(rune('a' + i)), Name: name, Price: decimal.NewFromInt(1), Active: name != "Cherry"}
		if name == "Banana" {
			p.CategoryID = &cat
		}
		require.NoError(t, s.InsertProduct(ctx, p))
	}

	got, err := s.ListProducts(ctx, ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, _ = s.ListProducts(ctx, ListFilter{Search: "APPLE"})
	assert.Len(t, got, 2)

	got, _ = s.ListProducts(ctx, ListFilter{CategoryID: "c1"})
	require.Len(t, got, 1)
	assert.Equal(t, "Banana", got[0].Name)

	got, _ = s.ListProducts(ctx, ListFilter{Skip: 3, Limit: 10})
	assert.Len(t, got, 1)
	got, _ = s.ListProducts(ctx, ListFilter{Skip: 10})
	assert.Empty(t, got)
}

func TestMemStore_DeleteCategoryDetachesProducts(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.InsertCategory(ctx, Category{ID: "c", Name: "Drinks"}))
	cid := "c"
	require.NoError(t, s.InsertProduct(ctx, Product{ID: "p", Name: "Tea", CategoryID: &cid}))

	require.NoError(t, s.DeleteCategory(ctx, "c"))
	p, _ := s.GetProduct(ctx, "p")
	assert.Nil(t, p.CategoryID)
	assert.ErrorIs(t, s.DeleteCategory(ctx, "c"), ErrCategoryNotFound)
}
