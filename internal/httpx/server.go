package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ariefcatur/go-inventory-orders/internal/auth"
	"github.com/ariefcatur/go-inventory-orders/internal/dashboard"
	"github.com/ariefcatur/go-inventory-orders/internal/inventory"
	"github.com/ariefcatur/go-inventory-orders/internal/orders"
	"github.com/ariefcatur/go-inventory-orders/internal/redisx"
	"github.com/ariefcatur/go-inventory-orders/internal/reports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 15 * time.Second

type Deps struct {
	Engine    *orders.Engine
	Inventory *inventory.Service
	Gate      *auth.Gate
	Dashboard *dashboard.Service
	Hub       *dashboard.Hub
	Reports   *reports.Service
	// OrderCache boleh nil
	OrderCache redisx.JSONCache
	Log        *slog.Logger
}

func NewRouter(d Deps) *chi.Mux {
	errs := errorWriter{log: d.Log}
	authn := auth.Authenticate(d.Gate, errs.write)
	ownerOnly := auth.RequireRole(errs.write, auth.RoleOwner)

	ah := &AuthHandler{Gate: d.Gate, errs: errs}
	ph := &ProductsHandler{Service: d.Inventory, errs: errs}
	ch := &CategoriesHandler{Service: d.Inventory, errs: errs}
	oh := &OrdersHandler{Engine: d.Engine, Cache: d.OrderCache, Log: d.Log, errs: errs}
	dh := &DashboardHandler{Service: d.Dashboard, errs: errs}
	rh := &ReportsHandler{Service: d.Reports, errs: errs}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(traceID)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// websocket: tanpa request timeout
	r.With(tokenFromQuery, authn, ownerOnly).Get("/dashboard/live", d.Hub.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		ah.RegisterPublic(r)
		ch.RegisterRead(r)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			ah.RegisterSession(r)
			ph.RegisterRead(r)
			oh.Register(r)

			r.Group(func(r chi.Router) {
				r.Use(ownerOnly)
				ah.RegisterAdmin(r)
				ch.RegisterAdmin(r)
				ph.RegisterAdmin(r)
				dh.Register(r)
				rh.Register(r)
			})
		})
	})
	return r
}

// traceID carries the chi request id into emitted order events.
func traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(orders.WithTraceID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// tokenFromQuery lets browsers, which cannot set headers on a websocket
// handshake, pass the bearer token as ?access_token=.
func tokenFromQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if t := r.URL.Query().Get("access_token"); t != "" {
				r.Header.Set("Authorization", "Bearer "+t)
			}
		}
		next.ServeHTTP(w, r)
	})
}
