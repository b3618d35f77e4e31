package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PGSource struct {
	DB *pgxpool.Pool
}

func (s *PGSource) OrderTotals(ctx context.Context, since *time.Time) (OrderTotals, error) {
	var t OrderTotals
	err := s.DB.QueryRow(ctx, `
		SELECT count(*), COALESCE(sum(o.total), 0), COALESCE(sum(iq.qty), 0)::bigint
		FROM orders o
		LEFT JOIN (
			SELECT order_id, sum(quantity) AS qty FROM order_items GROUP BY order_id
		) iq ON iq.order_id = o.id
		WHERE o.status <> 'cancelled'
		  AND ($1::timestamptz IS NULL OR o.created_at >= $1)`, since).
		Scan(&t.TotalOrders, &t.TotalRevenue, &t.TotalItemsSold)
	return t, err
}

func (s *PGSource) ProductTotals(ctx context.Context, lowStock int) (ProductTotals, error) {
	var t ProductTotals
	err := s.DB.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE is_active),
		       count(*) FILTER (WHERE NOT is_active),
		       COALESCE(sum(price * stock), 0),
		       count(*) FILTER (WHERE stock <= $1)
		FROM products`, lowStock).
		Scan(&t.TotalProducts, &t.ActiveProducts, &t.InactiveProducts, &t.InventoryValue, &t.LowStockCount)
	return t, err
}

var bucketFormat = map[Bucket]string{
	BucketDay:   "YYYY-MM-DD",
	BucketMonth: "YYYY-MM",
	BucketYear:  "YYYY",
}

func (s *PGSource) SalesTrend(ctx context.Context, since *time.Time, b Bucket) ([]TrendPoint, error) {
	format, ok := bucketFormat[b]
	if !ok {
		format = bucketFormat[BucketDay]
	}
	rows, err := s.DB.Query(ctx, `
		SELECT to_char(created_at AT TIME ZONE 'UTC', $2) AS bucket, sum(total), count(*)
		FROM orders
		WHERE status <> 'cancelled'
		  AND ($1::timestamptz IS NULL OR created_at >= $1)
		GROUP BY 1
		ORDER BY 1`, since, format)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TrendPoint{}
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Date, &p.Revenue, &p.Orders); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
