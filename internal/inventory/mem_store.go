package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-process Catalog. Every stock mutation happens under one
// lock acquisition, which gives TryDecrementStock its compare-and-swap semantics.
type MemStore struct {
	mu         sync.Mutex
	products   map[string]Product
	categories map[string]Category
	ops        []StockOperation
}

func NewMemStore() *MemStore {
	return &MemStore{
		products:   map[string]Product{},
		categories: map[string]Category{},
	}
}

func (s *MemStore) FindActiveByID(_ context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || !p.Active {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *MemStore) TryDecrementStock(_ context.Context, id string, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	s.products[id] = p
	return true, nil
}

func (s *MemStore) IncrementStock(_ context.Context, id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil
	}
	p.Stock += qty
	s.products[id] = p
	return nil
}

func (s *MemStore) InsertProduct(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

func (s *MemStore) GetProduct(_ context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *MemStore) ListProducts(_ context.Context, f ListFilter) ([]Product, error) {
	f = f.normalized()
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(f.Search)
	all := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if f.ActiveOnly && !p.Active {
			continue
		}
		if f.CategoryID != "" && (p.CategoryID == nil || *p.CategoryID != f.CategoryID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})

	if f.Skip >= len(all) {
		return []Product{}, nil
	}
	end := f.Skip + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Skip:end], nil
}

func (s *MemStore) UpdateProduct(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.products[p.ID]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock = cur.Stock
	p.CreatedAt = cur.CreatedAt
	s.products[p.ID] = p
	return nil
}

func (s *MemStore) SetStock(_ context.Context, id string, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock = stock
	s.products[id] = p
	return nil
}

func (s *MemStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemStore) ProductNameTaken(_ context.Context, name string, categoryID *string, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == excludeID || !strings.EqualFold(p.Name, name) {
			continue
		}
		if categoryID == nil || (p.CategoryID != nil && *p.CategoryID == *categoryID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) InsertStockOperation(_ context.Context, op StockOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
	return nil
}

// StockOperations returns a copy of the recorded audit trail.
func (s *MemStore) StockOperations() []StockOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StockOperation(nil), s.ops...)
}

func (s *MemStore) InsertCategory(_ context.Context, c Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *MemStore) GetCategory(_ context.Context, id string) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	return c, nil
}

func (s *MemStore) ListCategories(_ context.Context) ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	delete(s.categories, id)
	// sama seperti ON DELETE SET NULL
	for pid, p := range s.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			s.products[pid] = p
		}
	}
	return nil
}

func (s *MemStore) UpdateCategory(_ context.Context, c Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.categories[c.ID]
	if !ok {
		return ErrCategoryNotFound
	}
	cur.Name, cur.Description, cur.UpdatedAt = c.Name, c.Description, c.UpdatedAt
	s.categories[c.ID] = cur
	return nil
}

func (s *MemStore) CategoryNameTaken(_ context.Context, name, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.categories {
		if id != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}
