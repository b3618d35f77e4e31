package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PGSource struct {
	DB *pgxpool.Pool
}

func (s *PGSource) SalesOrders(ctx context.Context, from, to *time.Time, limit int) ([]SalesRow, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT o.customer_name, o.created_at,
		       (SELECT count(*) FROM order_items i WHERE i.order_id = o.id)::int,
		       o.status, o.total
		FROM orders o
		WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR o.created_at <= $2)
		ORDER BY o.created_at DESC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalesRow
	for rows.Next() {
		var r SalesRow
		if err := rows.Scan(&r.CustomerName, &r.CreatedAt, &r.ItemCount, &r.Status, &r.Total); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGSource) InventoryProducts(ctx context.Context, limit int) ([]InventoryRow, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT name, description, price, stock, is_active
		FROM products
		ORDER BY name
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InventoryRow
	for rows.Next() {
		var r InventoryRow
		if err := rows.Scan(&r.Name, &r.Description, &r.Price, &r.Stock, &r.Active); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
