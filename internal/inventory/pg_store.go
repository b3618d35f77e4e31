package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct{ DB *pgxpool.Pool }

const productColumns = `id, name, description, price, stock, is_active, category_id, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Active, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *PGStore) FindActiveByID(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1 AND is_active`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

// TryDecrementStock: cek dan kurangi stok dalam satu UPDATE, tidak ada read-then-write.
func (s *PGStore) TryDecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, id, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (s *PGStore) IncrementStock(ctx context.Context, id string, qty int) error {
	_, err := s.DB.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`, id, qty)
	return err
}

func (s *PGStore) InsertProduct(ctx context.Context, p Product) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Active, p.CategoryID, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *PGStore) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (s *PGStore) ListProducts(ctx context.Context, f ListFilter) ([]Product, error) {
	f = f.normalized()
	var (
		where []string
		args  []any
	)
	if f.ActiveOnly {
		where = append(where, "is_active")
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Skip)
	q += fmt.Sprintf(` ORDER BY name, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *PGStore) UpdateProduct(ctx context.Context, p Product) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET name=$2, description=$3, price=$4, is_active=$5, category_id=$6, updated_at=$7
		WHERE id=$1`,
		p.ID, p.Name, p.Description, p.Price, p.Active, p.CategoryID, p.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PGStore) SetStock(ctx context.Context, id string, stock int) error {
	ct, err := s.DB.Exec(ctx, `UPDATE products SET stock=$2, updated_at=now() WHERE id=$1`, id, stock)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PGStore) DeleteProduct(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PGStore) ProductNameTaken(ctx context.Context, name string, categoryID *string, excludeID string) (bool, error) {
	var n int
	err := s.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM products
		WHERE lower(name) = lower($1)
		  AND ($2::text IS NULL OR category_id = $2)
		  AND id <> $3`, name, categoryID, excludeID).Scan(&n)
	return n > 0, err
}

func (s *PGStore) InsertStockOperation(ctx context.Context, op StockOperation) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO stock_operations (id, product_id, type, quantity, reason, performed_by_id, performed_by_username, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		op.ID, op.ProductID, string(op.Type), op.Quantity, op.Reason, op.PerformedByID, op.PerformedByUsername, op.Timestamp)
	return err
}

func (s *PGStore) InsertCategory(ctx context.Context, c Category) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO categories (id, name, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)`, c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return err
}

func (s *PGStore) GetCategory(ctx context.Context, id string) (Category, error) {
	var c Category
	err := s.DB.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	return c, err
}

func (s *PGStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGStore) DeleteCategory(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *PGStore) UpdateCategory(ctx context.Context, c Category) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE categories SET name=$2, description=$3, updated_at=$4 WHERE id=$1`,
		c.ID, c.Name, c.Description, c.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *PGStore) CategoryNameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var n int
	err := s.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM categories WHERE lower(name) = lower($1) AND id <> $2`,
		name, excludeID).Scan(&n)
	return n > 0, err
}
