package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/mw"
)

func init() { Register("students", registerStudents) }

func registerStudents(r chi.Router, d deps.Deps) {
	r.Get("/api/students/{rollNo}/schedule", handlers.StudentSchedule(d))

	admin := r.With(mw.RequireAdmin(d.Roster, d.Logger, d.AdminGuard), mw.RequireSuperAdmin)
	admin.Get("/api/students", handlers.ListStudents(d))
	admin.Post("/api/students", handlers.UpsertStudent(d))
	admin.Delete("/api/students", handlers.DeleteStudent(d))
}
