package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-inventory-orders/internal/auth"
	"github.com/ariefcatur/go-inventory-orders/internal/inventory"
	"github.com/go-chi/chi/v5"
)

type ProductsHandler struct {
	Service *inventory.Service
	errs    errorWriter
}

// RegisterRead mounts the catalogue reads.
func (h *ProductsHandler) RegisterRead(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
}

// RegisterAdmin mounts the owner-only mutations.
func (h *ProductsHandler) RegisterAdmin(r chi.Router) {
	r.Post("/products", h.createProduct)
	r.Patch("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Patch("/products/{id}/activate", h.setActive(true))
	r.Patch("/products/{id}/deactivate", h.setActive(false))
	r.Post("/products/{id}/stock", h.adjustStock)
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", inventory.DefaultListLimit)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	activeOnly, err := queryBool(r, "active_only")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	q := r.URL.Query()
	ps, err := h.Service.ListProducts(r.Context(), inventory.ListFilter{
		Skip:       skip,
		Limit:      limit,
		ActiveOnly: activeOnly,
		CategoryID: q.Get("category_id"),
		Search:     q.Get("search"),
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if ps == nil {
		ps = []inventory.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in inventory.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	p, err := h.Service.CreateProduct(r.Context(), in)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var patch inventory.ProductPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.errs.write(w, r, err)
		return
	}
	p, err := h.Service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errs.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductsHandler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.Service.SetActive(r.Context(), chi.URLParam(r, "id"), active)
		if err != nil {
			h.errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

type stockReq struct {
	Type     inventory.StockOpType `json:"type"`
	Quantity int                   `json:"quantity"`
	Reason   string                `json:"reason"`
}

type stockResp struct {
	Product   inventory.Product        `json:"product"`
	Operation inventory.StockOperation `json:"operation"`
}

func (h *ProductsHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req stockReq
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	id, _ := auth.IdentityFrom(r.Context())
	p, op, err := h.Service.AdjustStock(r.Context(), chi.URLParam(r, "id"), req.Type, req.Quantity, req.Reason,
		inventory.Actor{ID: id.ID, Username: id.Username})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResp{Product: p, Operation: op})
}

type CategoriesHandler struct {
	Service *inventory.Service
	errs    errorWriter
}

func (h *CategoriesHandler) RegisterRead(r chi.Router) {
	r.Get("/categories", h.list)
	r.Get("/categories/{id}", h.get)
}

func (h *CategoriesHandler) RegisterAdmin(r chi.Router) {
	r.Post("/categories", h.create)
	r.Patch("/categories/{id}", h.update)
	r.Delete("/categories/{id}", h.delete)
}

func (h *CategoriesHandler) list(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Service.ListCategories(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if cs == nil {
		cs = []inventory.Category{}
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CategoriesHandler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CategoriesHandler) create(w http.ResponseWriter, r *http.Request) {
	var in inventory.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	c, err := h.Service.CreateCategory(r.Context(), in)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CategoriesHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch inventory.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.errs.write(w, r, err)
		return
	}
	c, err := h.Service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CategoriesHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errs.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
