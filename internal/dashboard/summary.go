package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ariefcatur/go-inventory-orders/internal/redisx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// LowStockThreshold: produk dengan stock <= nilai ini dihitung "low stock".
const LowStockThreshold = 5

var ErrInvalidPeriod = errors.New("invalid period")

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod accepts the period names plus their day-count aliases.
// An empty value means week.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "week", "7", "7d":
		return PeriodWeek, nil
	case "month", "30", "30d":
		return PeriodMonth, nil
	case "year", "365", "365d":
		return PeriodYear, nil
	case "all", "0":
		return PeriodAll, nil
	}
	return "", fmt.Errorf("%w: %q (use week, month, year or all)", ErrInvalidPeriod, s)
}

// Days is the window length; 0 means unbounded.
func (p Period) Days() int {
	switch p {
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	case PeriodYear:
		return 365
	}
	return 0
}

// Bucket is the granularity of the sales trend.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketMonth Bucket = "month"
	BucketYear  Bucket = "year"
)

func (p Period) Bucket() Bucket {
	switch p {
	case PeriodYear:
		return BucketMonth
	case PeriodAll:
		return BucketYear
	}
	return BucketDay
}

// Since returns the window start, or nil for PeriodAll.
func (p Period) Since(now time.Time) *time.Time {
	d := p.Days()
	if d == 0 {
		return nil
	}
	t := now.UTC().AddDate(0, 0, -d)
	return &t
}

type OrderTotals struct {
	TotalOrders    int             `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalItemsSold int             `json:"total_items_sold"`
}

type ProductTotals struct {
	TotalProducts    int             `json:"total_products"`
	ActiveProducts   int             `json:"active_products"`
	InactiveProducts int             `json:"inactive_products"`
	InventoryValue   decimal.Decimal `json:"inventory_value"`
	LowStockCount    int             `json:"low_stock_count"`
}

type TrendPoint struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type Summary struct {
	Period      Period        `json:"period"`
	Days        int           `json:"days"`
	Orders      OrderTotals   `json:"orders"`
	Products    ProductTotals `json:"products"`
	SalesTrend  []TrendPoint  `json:"sales_trend"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Source runs the read-only aggregations. Cancelled orders never count.
type Source interface {
	OrderTotals(ctx context.Context, since *time.Time) (OrderTotals, error)
	ProductTotals(ctx context.Context, lowStock int) (ProductTotals, error)
	SalesTrend(ctx context.Context, since *time.Time, b Bucket) ([]TrendPoint, error)
}

type Service struct {
	Source Source
	Cache  redisx.JSONCache
	TTL    time.Duration
	Log    *slog.Logger
	Now    func() time.Time
}

func NewService(src Source, cache redisx.JSONCache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{Source: src, Cache: cache, TTL: ttl, Log: log, Now: time.Now}
}

func cacheKey(p Period) string { return fmt.Sprintf(redisx.KeyDashboard, p) }

// Summary aggregates the dashboard for p, served from cache when fresh.
func (s *Service) Summary(ctx context.Context, p Period) (Summary, error) {
	var out Summary
	if s.Cache != nil {
		ok, err := s.Cache.Get(ctx, cacheKey(p), &out)
		if err != nil {
			s.Log.Warn("dashboard cache read", "err", err, "period", p)
		}
		if ok {
			return out, nil
		}
	}

	now := s.Now().UTC()
	since := p.Since(now)
	out = Summary{Period: p, Days: p.Days(), GeneratedAt: now}

	// ketiga agregasi independen, jalankan paralel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.Source.OrderTotals(gctx, since)
		out.Orders = t
		return err
	})
	g.Go(func() error {
		t, err := s.Source.ProductTotals(gctx, LowStockThreshold)
		out.Products = t
		return err
	})
	g.Go(func() error {
		t, err := s.Source.SalesTrend(gctx, since, p.Bucket())
		out.SalesTrend = t
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("dashboard %s: %w", p, err)
	}
	if out.SalesTrend == nil {
		out.SalesTrend = []TrendPoint{}
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, cacheKey(p), out, s.TTL); err != nil {
			s.Log.Warn("dashboard cache write", "err", err, "period", p)
		}
	}
	return out, nil
}

// Invalidate drops every cached period.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	keys := make([]string, 0, 4)
	for _, p := range []Period{PeriodWeek, PeriodMonth, PeriodYear, PeriodAll} {
		keys = append(keys, cacheKey(p))
	}
	return s.Cache.Delete(ctx, keys...)
}
