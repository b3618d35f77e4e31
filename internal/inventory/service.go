package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Actor identifies who performed an administrative change.
type Actor struct {
	ID       string
	Username string
}

// Service implements product/category administration on top of a Catalog.
type Service struct {
	Catalog Catalog
	Log     *slog.Logger
	Now     func() time.Time
}

func NewService(c Catalog, log *slog.Logger) *Service {
	return &Service{Catalog: c, Log: log, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	name, err := validName(in.Name)
	if err != nil {
		return Product{}, err
	}
	if err := validDescription(in.Description); err != nil {
		return Product{}, err
	}
	price := in.Price.Round(2)
	if !price.IsPositive() {
		return Product{}, fmt.Errorf("%w: price must be greater than 0", ErrInvalidProduct)
	}
	if in.Stock < 0 {
		return Product{}, fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return Product{}, err
	}
	taken, err := s.Catalog.ProductNameTaken(ctx, name, in.CategoryID, "")
	if err != nil {
		return Product{}, err
	}
	if taken {
		return Product{}, fmt.Errorf("%w: product %q already exists in the category", ErrDuplicateName, name)
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	p := Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: in.Description,
		Price:       price,
		Stock:       in.Stock,
		Active:      active,
		CategoryID:  in.CategoryID,
		CreatedAt:   s.Now(),
	}
	if err := s.Catalog.InsertProduct(ctx, p); err != nil {
		return Product{}, err
	}
	s.Log.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.Catalog.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, f ListFilter) ([]Product, error) {
	return s.Catalog.ListProducts(ctx, f)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	if patch.empty() {
		return Product{}, ErrNoUpdateFields
	}
	cur, err := s.Catalog.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}

	next := cur
	if patch.Name != nil {
		if next.Name, err = validName(*patch.Name); err != nil {
			return Product{}, err
		}
	}
	if patch.Description != nil {
		if err := validDescription(patch.Description); err != nil {
			return Product{}, err
		}
		next.Description = patch.Description
	}
	if patch.Price != nil {
		price := patch.Price.Round(2)
		if !price.IsPositive() {
			return Product{}, fmt.Errorf("%w: price must be greater than 0", ErrInvalidProduct)
		}
		next.Price = price
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return Product{}, fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	if patch.Active != nil {
		next.Active = *patch.Active
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID == "" {
			next.CategoryID = nil
		} else {
			if err := s.checkCategory(ctx, patch.CategoryID); err != nil {
				return Product{}, err
			}
			next.CategoryID = patch.CategoryID
		}
	}
	if patch.Name != nil {
		taken, err := s.Catalog.ProductNameTaken(ctx, next.Name, next.CategoryID, id)
		if err != nil {
			return Product{}, err
		}
		if taken {
			return Product{}, fmt.Errorf("%w: another product named %q exists in the category", ErrDuplicateName, next.Name)
		}
	}

	now := s.Now()
	next.UpdatedAt = &now
	if err := s.Catalog.UpdateProduct(ctx, next); err != nil {
		return Product{}, err
	}
	if patch.Stock != nil {
		if err := s.Catalog.SetStock(ctx, id, *patch.Stock); err != nil {
			return Product{}, err
		}
	}
	return s.Catalog.GetProduct(ctx, id)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (Product, error) {
	return s.UpdateProduct(ctx, id, ProductPatch{Active: &active})
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.Catalog.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.Log.Info("product deleted", "product_id", id)
	return nil
}

// AdjustStock applies a manual increase/decrease and records it in the audit trail.
// Decreases use the same conditional update as order reservations.
func (s *Service) AdjustStock(ctx context.Context, id string, typ StockOpType, qty int, reason string, by Actor) (Product, StockOperation, error) {
	reason = strings.TrimSpace(reason)
	switch {
	case typ != StockIncrease && typ != StockDecrease:
		return Product{}, StockOperation{}, fmt.Errorf("%w: type must be increase or decrease", ErrInvalidStockOp)
	case qty <= 0:
		return Product{}, StockOperation{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidStockOp)
	case reason == "" || utf8.RuneCountInString(reason) > 255:
		return Product{}, StockOperation{}, fmt.Errorf("%w: reason must be 1-255 characters", ErrInvalidStockOp)
	}
	p, err := s.Catalog.GetProduct(ctx, id)
	if err != nil {
		return Product{}, StockOperation{}, err
	}

	if typ == StockIncrease {
		if err := s.Catalog.IncrementStock(ctx, id, qty); err != nil {
			return Product{}, StockOperation{}, err
		}
	} else {
		ok, err := s.Catalog.TryDecrementStock(ctx, id, qty)
		if err != nil {
			return Product{}, StockOperation{}, err
		}
		if !ok {
			return Product{}, StockOperation{}, fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, p.Name, p.Stock, qty)
		}
	}

	op := StockOperation{
		ID:                  uuid.NewString(),
		ProductID:           id,
		Type:                typ,
		Quantity:            qty,
		Reason:              reason,
		PerformedByID:       by.ID,
		PerformedByUsername: by.Username,
		Timestamp:           s.Now(),
	}
	if err := s.Catalog.InsertStockOperation(ctx, op); err != nil {
		// stok sudah berubah; audit gagal cukup di-log
		s.Log.Error("stock operation audit", "err", err, "product_id", id, "type", typ, "qty", qty)
	}
	p, err = s.Catalog.GetProduct(ctx, id)
	return p, op, err
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	name, err := validName(in.Name)
	if err != nil {
		return Category{}, err
	}
	if err := validDescription(in.Description); err != nil {
		return Category{}, err
	}
	taken, err := s.Catalog.CategoryNameTaken(ctx, name, "")
	if err != nil {
		return Category{}, err
	}
	if taken {
		return Category{}, fmt.Errorf("%w: category %q", ErrDuplicateName, name)
	}
	c := Category{ID: uuid.NewString(), Name: name, Description: in.Description, CreatedAt: s.Now()}
	if err := s.Catalog.InsertCategory(ctx, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (Category, error) {
	return s.Catalog.GetCategory(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.Catalog.ListCategories(ctx)
}

// UpdateCategory applies a partial update. An empty patch is rejected with
// ErrNoUpdateFields before the category is looked up.
func (s *Service) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (Category, error) {
	if patch.empty() {
		return Category{}, ErrNoUpdateFields
	}
	c, err := s.Catalog.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if patch.Name != nil {
		name, err := validName(*patch.Name)
		if err != nil {
			return Category{}, err
		}
		taken, err := s.Catalog.CategoryNameTaken(ctx, name, id)
		if err != nil {
			return Category{}, err
		}
		if taken {
			return Category{}, fmt.Errorf("%w: category %q", ErrDuplicateName, name)
		}
		c.Name = name
	}
	if patch.Description != nil {
		if err := validDescription(patch.Description); err != nil {
			return Category{}, err
		}
		c.Description = patch.Description
	}
	now := s.Now()
	c.UpdatedAt = &now
	if err := s.Catalog.UpdateCategory(ctx, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.Catalog.DeleteCategory(ctx, id)
}

func (s *Service) checkCategory(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.Catalog.GetCategory(ctx, *id); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return ErrInvalidCategory
		}
		return err
	}
	return nil
}

func validName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(name); n < 1 || n > 255 {
		return "", fmt.Errorf("%w: name must be 1-255 characters", ErrInvalidProduct)
	}
	return name, nil
}

func validDescription(d *string) error {
	if d != nil && utf8.RuneCountInString(*d) > 1000 {
		return fmt.Errorf("%w: description too long", ErrInvalidProduct)
	}
	return nil
}
