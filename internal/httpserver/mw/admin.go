package mw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/service"
)

// AdminPasswordHeader carries the admin password on every admin request.
const AdminPasswordHeader = "X-Admin-Password"

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by RequireAdmin.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// RequireAdmin authenticates the X-Admin-Password header and stores the
// resulting principal in the request context.
//
// When guard is non-nil every rejected password spends one of the client's
// tokens, and a client with none left gets 429 before its password is
// checked. Accepted requests are not counted.
func RequireAdmin(r *service.Roster, log logger.Logger, guard *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if guard != nil {
				if ip, retryAfter, blocked := guard.blocked(req); blocked {
					guard.reject(w, req, ip, retryAfter)
					return
				}
			}

			p, err := r.Authenticate(req.Context(), req.Header.Get(AdminPasswordHeader))
			switch {
			case err == nil:
				next.ServeHTTP(w, req.WithContext(WithPrincipal(req.Context(), p)))
			case errors.Is(err, domain.ErrRejected):
				if guard != nil {
					guard.spend(req)
				}
				log.Debug("admin request rejected", logger.String("path", req.URL.Path))
				writeError(w, http.StatusUnauthorized, "Invalid credentials")
			default:
				writeError(w, http.StatusServiceUnavailable, "store unavailable")
			}
		})
	}
}

// RequireSuperAdmin must run after RequireAdmin.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		p, ok := PrincipalFrom(req.Context())
		if !ok || !p.IsSuperAdmin() {
			writeError(w, http.StatusForbidden, "super admin required")
			return
		}
		next.ServeHTTP(w, req)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
