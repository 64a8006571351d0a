package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/mw"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
)

func init() { Register("admin", registerAdmin) }

// adminGuard counts login attempts and rejected X-Admin-Password headers
// against one bucket per client IP.
func adminGuard(d deps.Deps) *mw.Limiter {
	return mw.NewLimiter(mw.RateLimitConfig{
		Burst:        d.LoginBurst,
		RefillPerMin: d.LoginRefillPerMin,
		MaxEntries:   10_000,
		IdleTTL:      15 * time.Minute,
		TrustProxy:   d.TrustProxy,
		OnLimited: func(req *http.Request, ip string) {
			route := "admin"
			if req.URL.Path == "/api/admin/login" {
				route = "login"
			}
			d.Metrics.RateLimited.WithLabelValues(route).Inc()
			d.Logger.Warn("admin auth rate limited",
				logger.String("remote_ip", ip),
				logger.String("path", req.URL.Path))
		},
	})
}

func registerAdmin(r chi.Router, d deps.Deps) {
	r.With(d.AdminGuard.Middleware()).Post("/api/admin/login", handlers.Login(d))

	bulk := r.With(mw.RequireAdmin(d.Roster, d.Logger, d.AdminGuard), mw.RequireSuperAdmin)
	bulk.Put("/api/admin/students", handlers.BulkStudents(d))
	bulk.Put("/api/admin/domains", handlers.BulkDomains(d))
	bulk.Put("/api/admin/schedule", handlers.BulkSchedule(d))
}
