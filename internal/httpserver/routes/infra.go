package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/mw"
)

func init() { Register("infra", registerInfra) }

// Operator endpoints: probes, component status, metrics and manual reload.
func registerInfra(r chi.Router, d deps.Deps) {
	internal := r.With(mw.Internal(d.AllowedHosts, d.AllowedCIDRS, d.TrustProxy, d.Logger)...)
	internal.Get("/healthz", handlers.Healthz(d))
	internal.Get("/readyz", handlers.Readyz(d))
	internal.Get("/infra", handlers.Infra(d))
	internal.Handle("/metrics", d.Metrics.Handler())

	internal.With(mw.RequireAdmin(d.Roster, d.Logger, d.AdminGuard), mw.RequireSuperAdmin).
		Post("/reload", handlers.Reload(d))
}
