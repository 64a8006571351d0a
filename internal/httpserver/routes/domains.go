package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/mw"
)

func init() { Register("domains", registerDomains) }

func registerDomains(r chi.Router, d deps.Deps) {
	r.Get("/api/domains", handlers.ListDomains(d))
	// any admin; the handler checks the principal may manage the domain
	r.With(mw.RequireAdmin(d.Roster, d.Logger, d.AdminGuard)).Post("/api/domains", handlers.UpdateDomain(d))
}
