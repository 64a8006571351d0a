package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/mw"
)

type updateDomainRequest struct {
	Name     string  `json:"name" validate:"required"`
	MeetLink *string `json:"meetLink" validate:"required"`
}

type successResponse struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
}

// ListDomains returns every domain name and meet link. Passwords never leave the server.
func ListDomains(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := d.Roster.ListDomainViews(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// UpdateDomain sets a domain's meet link. A domain admin may only change
// its own domain.
func UpdateDomain(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateDomainRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, err)
			return
		}

		p, ok := mw.PrincipalFrom(r.Context())
		if !ok {
			writeError(w, d, domain.ErrRejected)
			return
		}

		if err := d.Roster.UpsertDomain(r.Context(), p, req.Name, *req.MeetLink); err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}
