// Package reports builds the owner-only sales and inventory PDF downloads.
package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SalesLimit     = 500
	InventoryLimit = 1000
	// LowStockAt matches the dashboard low-stock threshold.
	LowStockAt = 5
)

var (
	ErrNoOrders   = errors.New("no orders found for given period")
	ErrNoProducts = errors.New("no products found")
	ErrBadDate    = errors.New("invalid date")
)

type SalesRow struct {
	CustomerName string
	CreatedAt    time.Time
	ItemCount    int
	Status       string
	Total        decimal.Decimal
}

type InventoryRow struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	Active      bool
}

func (r InventoryRow) LowStock() bool { return r.Stock <= LowStockAt }

type SalesReport struct {
	Company     string
	From, To    *time.Time
	GeneratedAt time.Time
	Rows        []SalesRow
	// TotalSales excludes cancelled orders.
	TotalSales decimal.Decimal
}

// Period is "All Time" unless both bounds are set.
func (r SalesReport) Period() string {
	if r.From == nil || r.To == nil {
		return "All Time"
	}
	return r.From.Format("Jan 02, 2006") + " - " + r.To.Format("Jan 02, 2006")
}

type InventoryReport struct {
	Company        string
	GeneratedAt    time.Time
	Rows           []InventoryRow
	InventoryValue decimal.Decimal
}

// Source yields report rows. Sales rows are newest first, inventory rows by name.
type Source interface {
	SalesOrders(ctx context.Context, from, to *time.Time, limit int) ([]SalesRow, error)
	InventoryProducts(ctx context.Context, limit int) ([]InventoryRow, error)
}

type Renderer interface {
	Sales(w io.Writer, r SalesReport) error
	Inventory(w io.Writer, r InventoryReport) error
}

type Service struct {
	Source   Source
	Renderer Renderer
	Company  string
	Log      *slog.Logger
	Now      func() time.Time
}

func NewService(src Source, r Renderer, company string, log *slog.Logger) *Service {
	return &Service{Source: src, Renderer: r, Company: company, Log: log, Now: time.Now}
}

// Sales renders the sales report for [from, to]. Either bound may be nil.
func (s *Service) Sales(ctx context.Context, from, to *time.Time) ([]byte, error) {
	rows, err := s.Source.SalesOrders(ctx, from, to, SalesLimit)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoOrders
	}
	rep := SalesReport{Company: s.Company, From: from, To: to, GeneratedAt: s.Now(), Rows: rows}
	for _, o := range rows {
		if o.Status != "cancelled" {
			rep.TotalSales = rep.TotalSales.Add(o.Total)
		}
	}

	var buf bytes.Buffer
	if err := s.Renderer.Sales(&buf, rep); err != nil {
		return nil, fmt.Errorf("render sales report: %w", err)
	}
	s.Log.Info("sales report generated", "orders", len(rows), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (s *Service) Inventory(ctx context.Context) ([]byte, error) {
	rows, err := s.Source.InventoryProducts(ctx, InventoryLimit)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoProducts
	}
	rep := InventoryReport{Company: s.Company, GeneratedAt: s.Now(), Rows: rows}
	for _, p := range rows {
		rep.InventoryValue = rep.InventoryValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))
	}

	var buf bytes.Buffer
	if err := s.Renderer.Inventory(&buf, rep); err != nil {
		return nil, fmt.Errorf("render inventory report: %w", err)
	}
	s.Log.Info("inventory report generated", "products", len(rows), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// Filename is "<kind>_report_YYYYMMDD_HHMMSS.pdf" in UTC.
func Filename(kind string, at time.Time) string {
	return kind + "_report_" + at.UTC().Format("20060102_150405") + ".pdf"
}

// ParseDate accepts RFC 3339 or a plain YYYY-MM-DD. With endOfDay a plain
// date covers the whole day.
func ParseDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadDate, raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
