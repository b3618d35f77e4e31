package httpx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ariefcatur/go-inventory-orders/internal/auth"
	"github.com/ariefcatur/go-inventory-orders/internal/orders"
	"github.com/ariefcatur/go-inventory-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	Engine *orders.Engine
	// Cache boleh nil; DB tetap jadi kebenaran
	Cache redisx.JSONCache
	Log   *slog.Logger
	errs  errorWriter
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Patch("/orders/{id}/cancel", h.cancelOrder)
	r.Patch("/orders/{id}/pending", h.markPending)
}

func creatorFrom(ctx context.Context) orders.Creator {
	id, _ := auth.IdentityFrom(ctx)
	return orders.Creator{ID: id.ID, Username: id.Username}
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	o, err := h.Engine.CreateOrder(r.Context(), req, creatorFrom(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	h.cacheOrder(r.Context(), o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", orders.DefaultListLimit)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	list, err := h.Engine.ListOrders(r.Context(), limit)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	// 1) coba cache
	if h.Cache != nil {
		var cached orders.Order
		ok, err := h.Cache.Get(ctx, orderKey(id), &cached)
		if err != nil {
			h.Log.Warn("order cache read", "err", err, "order_id", id)
		}
		if ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	// 2) fallback DB
	o, err := h.Engine.GetOrder(ctx, id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	h.cacheOrder(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.CancelOrder)
}

func (h *OrdersHandler) markPending(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Engine.MarkPending)
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (orders.Order, error)) {
	o, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	h.cacheOrder(r.Context(), o)
	writeJSON(w, http.StatusOK, o)
}

func orderKey(id string) string { return fmt.Sprintf(redisx.KeyOrder, id) }

// cacheOrder overwrites the cached copy with the committed state.
func (h *OrdersHandler) cacheOrder(ctx context.Context, o orders.Order) {
	if h.Cache == nil {
		return
	}
	// request ctx bisa sudah dibatalkan setelah commit
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := h.Cache.Set(ctx, orderKey(o.ID), o, redisx.TTLOrderCache); err != nil {
		h.Log.Warn("order cache write", "err", err, "order_id", o.ID)
	}
}
