package httpx

import (
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-inventory-orders/internal/reports"
	"github.com/go-chi/chi/v5"
)

type ReportsHandler struct {
	Service *reports.Service
	errs    errorWriter
}

func (h *ReportsHandler) Register(r chi.Router) {
	r.Get("/reports/sales/pdf", h.sales)
	r.Get("/reports/inventory/pdf", h.inventory)
}

func (h *ReportsHandler) sales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := reports.ParseDate(q.Get("start_date"), false)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	to, err := reports.ParseDate(q.Get("end_date"), true)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	pdf, err := h.Service.Sales(r.Context(), from, to)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writePDF(w, reports.Filename("sales", h.Service.Now()), pdf)
}

func (h *ReportsHandler) inventory(w http.ResponseWriter, r *http.Request) {
	pdf, err := h.Service.Inventory(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writePDF(w, reports.Filename("inventory", h.Service.Now()), pdf)
}

func writePDF(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

