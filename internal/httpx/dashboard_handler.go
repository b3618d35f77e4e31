package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-inventory-orders/internal/dashboard"
	"github.com/go-chi/chi/v5"
)

type DashboardHandler struct {
	Service *dashboard.Service
	errs    errorWriter
}

func (h *DashboardHandler) Register(r chi.Router) {
	r.Get("/dashboard", h.summary)
}

func (h *DashboardHandler) summary(w http.ResponseWriter, r *http.Request) {
	p, err := dashboard.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	s, err := h.Service.Summary(r.Context(), p)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
