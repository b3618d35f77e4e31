package orders

import (
	"context"
	"sort"
	"sync"
)

type MemLedger struct {
	mu     sync.Mutex
	orders map[string]Order
}

func NewMemLedger() *MemLedger {
	return &MemLedger{orders: map[string]Order{}}
}

func (l *MemLedger) Insert(_ context.Context, o Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o.Items = append([]LineItem(nil), o.Items...)
	l.orders[o.ID] = o
	return nil
}

func (l *MemLedger) Get(_ context.Context, id string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	o.Items = append([]LineItem(nil), o.Items...)
	return o, nil
}

func (l *MemLedger) List(_ context.Context, limit int) ([]Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Order, 0, len(l.orders))
	for _, o := range l.orders {
		o.Items = append([]LineItem(nil), o.Items...)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (l *MemLedger) TransitionStatus(_ context.Context, id string, from, to Status) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	l.orders[id] = o
	return true, nil
}

// Len is the number of stored orders.
func (l *MemLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders)
}
