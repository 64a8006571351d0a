package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
)

type studentSummary struct {
	Name   string `json:"name"`
	RollNo string `json:"rollNo"`
}

type scheduleResponse struct {
	Student     studentSummary              `json:"student"`
	EventDate   string                      `json:"eventDate"`
	Assignments []domain.ResolvedAssignment `json:"assignments"`
}

// StudentSchedule serves the resolved schedule of one roll number.
func StudentSchedule(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rollNo := chi.URLParam(r, "rollNo")
		if rollNo == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "roll number required"})
			return
		}

		lookup, err := d.Roster.Resolve(r.Context(), rollNo)
		if err != nil {
			writeError(w, d, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, scheduleResponse{
			Student: studentSummary{
				Name:   lookup.Student.Name,
				RollNo: lookup.Student.RollNo,
			},
			EventDate:   d.EventDate,
			Assignments: lookup.Assignments,
		})
	}
}
