package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/go-inventory-orders/internal/logx"
	"github.com/ariefcatur/go-inventory-orders/internal/redisx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	cases := map[string]Period{
		"":      PeriodWeek,
		"week":  PeriodWeek,
		"7d":    PeriodWeek,
		"MONTH": PeriodMonth,
		"30":    PeriodMonth,
		"year":  PeriodYear,
		"365d":  PeriodYear,
		"all":   PeriodAll,
		"0":     PeriodAll,
	}
	for in, want := range cases {
		got, err := ParsePeriod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePeriod("decade")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPeriodWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	since := PeriodWeek.Since(now)
	require.NotNil(t, since)
	assert.Equal(t, time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC), *since)
	assert.Nil(t, PeriodAll.Since(now))

	assert.Equal(t, BucketDay, PeriodWeek.Bucket())
	assert.Equal(t, BucketDay, PeriodMonth.Bucket())
	assert.Equal(t, BucketMonth, PeriodYear.Bucket())
	assert.Equal(t, BucketYear, PeriodAll.Bucket())
	assert.Equal(t, 0, PeriodAll.Days())
}

type fakeSource struct {
	calls    atomic.Int32
	since    atomic.Pointer[time.Time]
	bucket   atomic.Value
	lowStock atomic.Int32
	trendErr error
	trendNil bool
}

func (f *fakeSource) OrderTotals(_ context.Context, since *time.Time) (OrderTotals, error) {
	f.calls.Add(1)
	f.since.Store(since)
	return OrderTotals{TotalOrders: 2, TotalRevenue: decimal.RequireFromString("50.00"), TotalItemsSold: 5}, nil
}

func (f *fakeSource) ProductTotals(_ context.Context, lowStock int) (ProductTotals, error) {
	f.lowStock.Store(int32(lowStock))
	return ProductTotals{TotalProducts: 3, ActiveProducts: 2, InactiveProducts: 1, LowStockCount: 1}, nil
}

func (f *fakeSource) SalesTrend(_ context.Context, _ *time.Time, b Bucket) ([]TrendPoint, error) {
	f.bucket.Store(b)
	if f.trendErr != nil {
		return nil, f.trendErr
	}
	if f.trendNil {
		return nil, nil
	}
	return []TrendPoint{{Date: "2025-03-09", Revenue: decimal.RequireFromString("50.00"), Orders: 2}}, nil
}

func newTestService(src Source) (*Service, *redisx.MemCache) {
	cache := redisx.NewMemCache()
	s := NewService(src, cache, 5*time.Minute, logx.Discard())
	s.Now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return s, cache
}

func TestSummary_AggregatesAndCaches(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	s, cache := newTestService(src)

	got, err := s.Summary(ctx, PeriodYear)
	require.NoError(t, err)
	assert.Equal(t, PeriodYear, got.Period)
	assert.Equal(t, 365, got.Days)
	assert.Equal(t, 2, got.Orders.TotalOrders)
	assert.Equal(t, 3, got.Products.TotalProducts)
	require.Len(t, got.SalesTrend, 1)
	assert.Equal(t, BucketMonth, src.bucket.Load())
	assert.Equal(t, int32(LowStockThreshold), src.lowStock.Load())
	require.NotNil(t, src.since.Load())
	assert.True(t, cache.Has("dashboard:year"))

	again, err := s.Summary(ctx, PeriodYear)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load(), "second read served from cache")
	assert.True(t, again.Orders.TotalRevenue.Equal(got.Orders.TotalRevenue))

	require.NoError(t, s.Invalidate(ctx))
	assert.False(t, cache.Has("dashboard:year"))
	_, err = s.Summary(ctx, PeriodYear)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestSummary_AllHasNoLowerBound(t *testing.T) {
	src := &fakeSource{trendNil: true}
	s, _ := newTestService(src)
	got, err := s.Summary(context.Background(), PeriodAll)
	require.NoError(t, err)
	assert.Nil(t, src.since.Load())
	assert.NotNil(t, got.SalesTrend)
	assert.Empty(t, got.SalesTrend)
}

func TestSummary_SourceErrorIsNotCached(t *testing.T) {
	boom := errors.New("query failed")
	src := &fakeSource{trendErr: boom}
	s, cache := newTestService(src)

	_, err := s.Summary(context.Background(), PeriodWeek)
	assert.ErrorIs(t, err, boom)
	assert.False(t, cache.Has("dashboard:week"))
}

func TestSummary_NoCache(t *testing.T) {
	src := &fakeSource{}
	s := NewService(src, nil, time.Minute, logx.Discard())
	_, err := s.Summary(context.Background(), PeriodMonth)
	require.NoError(t, err)
	_, err = s.Summary(context.Background(), PeriodMonth)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
	assert.NoError(t, s.Invalidate(context.Background()))
}
