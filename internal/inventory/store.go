package inventory

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrInvalidCategory   = errors.New("invalid category_id")
	ErrDuplicateName     = errors.New("name already exists")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidStockOp    = errors.New("invalid stock operation")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoUpdateFields    = errors.New("no update fields provided")
)

// Store is the stock contract the order workflow depends on.
type Store interface {
	// FindActiveByID returns ErrProductNotFound for missing or inactive products.
	FindActiveByID(ctx context.Context, id string) (Product, error)
	// TryDecrementStock is a single conditional update: it reports true only
	// if stock >= qty held at the moment of the update.
	TryDecrementStock(ctx context.Context, id string, qty int) (bool, error)
	// IncrementStock is unconditional. A missing product is a no-op.
	IncrementStock(ctx context.Context, id string, qty int) error
}

// Catalog is the persistence for administrative product/category management.
type Catalog interface {
	Store

	InsertProduct(ctx context.Context, p Product) error
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context, f ListFilter) ([]Product, error)
	// UpdateProduct writes every field except stock.
	UpdateProduct(ctx context.Context, p Product) error
	SetStock(ctx context.Context, id string, stock int) error
	DeleteProduct(ctx context.Context, id string) error
	// ProductNameTaken matches case-insensitively; categoryID nil checks all products.
	ProductNameTaken(ctx context.Context, name string, categoryID *string, excludeID string) (bool, error)
	InsertStockOperation(ctx context.Context, op StockOperation) error

	InsertCategory(ctx context.Context, c Category) error
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	// UpdateCategory writes name, description and updated_at.
	UpdateCategory(ctx context.Context, c Category) error
	DeleteCategory(ctx context.Context, id string) error
	// CategoryNameTaken matches case-insensitively, ignoring excludeID.
	CategoryNameTaken(ctx context.Context, name, excludeID string) (bool, error)
}
