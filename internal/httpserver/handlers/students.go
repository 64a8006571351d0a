package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
)

type studentResponse struct {
	Success bool           `json:"success"`
	Student domain.Student `json:"student"`
}

func ListStudents(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := d.Roster.ListStudents(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, students)
	}
}

// UpsertStudent merges a partial student into the record with the same id,
// or creates one.
func UpsertStudent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.StudentPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, d, err)
			return
		}

		s, err := d.Roster.UpsertStudent(r.Context(), patch)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, studentResponse{Success: true, Student: s})
	}
}

func DeleteStudent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ID required"})
			return
		}

		if err := d.Roster.DeleteStudent(r.Context(), id); err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}
