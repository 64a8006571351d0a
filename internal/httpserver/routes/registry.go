package routes

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type group struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var groups []group

// Register adds a named route group, wrapped in mws. Files call it from
// init(). Names must be unique.
func Register(name string, reg Registrar, mws ...Middleware) {
	if slices.ContainsFunc(groups, func(g group) bool { return g.name == name }) {
		panic(fmt.Sprintf("routes: group %q registered twice", name))
	}
	groups = append(groups, group{name: name, reg: reg, mws: mws})
}

// RegisterAll mounts every group on r in name order. Called once from
// httpserver.New.
func RegisterAll(r chi.Router, d deps.Deps) {
	if d.AdminGuard == nil {
		d.AdminGuard = adminGuard(d)
	}

	sorted := slices.SortedFunc(slices.Values(groups), func(a, b group) int {
		return cmp.Compare(a.name, b.name)
	})

	names := make([]string, 0, len(sorted))
	for _, g := range sorted {
		if len(g.mws) > 0 {
			g.reg(r.With(g.mws...), d)
		} else {
			g.reg(r, d)
		}
		names = append(names, g.name)
	}
	d.Logger.Debug("routes registered", logger.Strings("groups", names))
}
