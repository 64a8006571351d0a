package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
)

// BulkStudents upserts a list of students by roll number.
func BulkStudents(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var list []domain.Student
		if err := decodeJSON(w, r, &list); err != nil {
			writeError(w, d, err)
			return
		}
		if err := d.Roster.UpsertStudents(r.Context(), list); err != nil {
			writeError(w, d, err)
			return
		}
		n := len(list)
		writeJSON(w, http.StatusOK, successResponse{Success: true, Count: &n})
	}
}

// BulkDomains upserts a list of domains by name.
func BulkDomains(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var list []domain.Domain
		if err := decodeJSON(w, r, &list); err != nil {
			writeError(w, d, err)
			return
		}
		if err := d.Roster.UpsertDomains(r.Context(), list); err != nil {
			writeError(w, d, err)
			return
		}
		n := len(list)
		writeJSON(w, http.StatusOK, successResponse{Success: true, Count: &n})
	}
}

// BulkSchedule replaces the whole schedule.
func BulkSchedule(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var list []domain.ScheduleItem
		if err := decodeJSON(w, r, &list); err != nil {
			writeError(w, d, err)
			return
		}
		if err := d.Roster.SaveSchedule(r.Context(), list); err != nil {
			writeError(w, d, err)
			return
		}
		n := len(list)
		writeJSON(w, http.StatusOK, successResponse{Success: true, Count: &n})
	}
}
