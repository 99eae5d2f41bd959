package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-commerce/meridian/internal/inventory"
	"github.com/meridian-commerce/meridian/internal/masterdata"
	"github.com/meridian-commerce/meridian/internal/observability"
	"github.com/meridian-commerce/meridian/internal/procurement"
	"github.com/meridian-commerce/meridian/internal/sales"
	"github.com/meridian-commerce/meridian/internal/warehouse"
	"github.com/meridian-commerce/meridian/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	WarehouseHandler   *warehouse.Handler
	InventoryHandler   *inventory.Handler
	ProcurementHandler *procurement.Handler
	SalesHandler       *sales.Handler
	MasterDataHandler  *masterdata.Handler
	JobsHandler        *jobs.Handler
	Pool               *pgxpool.Pool
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(TenantMiddleware(params.Logger))
		api.Route("/warehouses", func(rt chi.Router) {
			params.WarehouseHandler.MountRoutes(rt)
		})
		api.Route("/inventory", func(rt chi.Router) {
			params.InventoryHandler.MountRoutes(rt)
		})
		api.Route("/procurement", func(rt chi.Router) {
			params.ProcurementHandler.MountRoutes(rt)
		})
		api.Route("/sales", func(rt chi.Router) {
			params.SalesHandler.MountRoutes(rt)
		})
		api.Route("/masterdata", func(rt chi.Router) {
			params.MasterDataHandler.MountRoutes(rt)
		})
		if params.JobsHandler != nil {
			api.Route("/jobs", func(rt chi.Router) {
				params.JobsHandler.MountRoutes(rt)
			})
		}
	})

	return r
}
