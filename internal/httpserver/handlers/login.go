package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/utils"
)

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success    bool        `json:"success"`
	Role       domain.Role `json:"role"`
	DomainName string      `json:"domainName,omitempty"`
}

// Login tells the caller which role a password grants. It creates no session;
// admin requests send the password again in the X-Admin-Password header.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d, err)
			return
		}

		p, err := d.Roster.Authenticate(r.Context(), req.Password)
		if errors.Is(err, domain.ErrRejected) {
			d.Logger.Info("admin login rejected",
				logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)))
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid credentials"})
			return
		}
		if err != nil {
			writeError(w, d, err)
			return
		}

		d.Logger.Info("admin login",
			logger.String("role", string(p.Role)),
			logger.String("domain", p.DomainName))
		writeJSON(w, http.StatusOK, loginResponse{
			Success:    true,
			Role:       p.Role,
			DomainName: p.DomainName,
		})
	}
}
