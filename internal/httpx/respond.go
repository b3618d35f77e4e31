package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-inventory-orders/internal/auth"
	"github.com/ariefcatur/go-inventory-orders/internal/dashboard"
	"github.com/ariefcatur/go-inventory-orders/internal/inventory"
	"github.com/ariefcatur/go-inventory-orders/internal/orders"
	"github.com/ariefcatur/go-inventory-orders/internal/reports"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

func init() {
	// uang dikirim sebagai JSON number; decode tetap menerima bentuk string
	decimal.MarshalJSONWithoutQuotes = true
}

const maxBodyBytes = 1 << 20

var errInvalidJSON = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidJSON
	}
	return nil
}

// statusFor maps domain errors to HTTP codes; anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, inventory.ErrCategoryNotFound),
		errors.Is(err, reports.ErrNoOrders),
		errors.Is(err, reports.ErrNoProducts),
		errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound

	case errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, orders.ErrStockConflict),
		errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidCustomer),
		errors.Is(err, orders.ErrAlreadyCancelled),
		errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrInvalidProduct),
		errors.Is(err, inventory.ErrInvalidCategory),
		errors.Is(err, inventory.ErrInvalidStockOp),
		errors.Is(err, inventory.ErrDuplicateName),
		errors.Is(err, inventory.ErrNoUpdateFields),
		errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, auth.ErrInvalidUser),
		errors.Is(err, dashboard.ErrInvalidPeriod),
		errors.Is(err, reports.ErrBadDate),
		errors.Is(err, errInvalidJSON),
		errors.Is(err, errBadQuery):
		return http.StatusBadRequest

	case errors.Is(err, orders.ErrConcurrentUpdate):
		return http.StatusConflict

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, orders.ErrMissingCreator):
		return http.StatusUnauthorized

	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, auth.ErrAccountDisabled):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// errorWriter renders {"error": ...}. 5xx causes are logged, never sent to clients.
type errorWriter struct {
	log *slog.Logger
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		e.log.Error("request failed", "err", err, "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()))
		msg = "internal server error"
	}
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

var errBadQuery = errors.New("invalid query parameter")

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadQuery, key)
	}
	return n, nil
}

func queryBool(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", errBadQuery, key)
	}
	return b, nil
}
