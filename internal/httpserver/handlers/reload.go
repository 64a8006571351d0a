package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/utils"
)

type reloadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
}

// Reload asks the schedule reloader for an immediate re-import. It does not
// wait for the import; /infra reports the outcome.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			writeJSON(w, http.StatusServiceUnavailable, reloadResponse{
				Message: "no schedule file configured",
			})
			return
		}

		ip := utils.ClientIP(r, d.TrustProxy)
		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual schedule reload triggered", logger.String("remote_ip", ip))
			writeJSON(w, http.StatusAccepted, reloadResponse{
				Success: true,
				Message: "reload triggered",
				File:    d.ScheduleFile,
			})
		default:
			d.Logger.Warn("schedule reload already pending", logger.String("remote_ip", ip))
			writeJSON(w, http.StatusTooManyRequests, reloadResponse{
				Message: "reload already pending, retry later",
				File:    d.ScheduleFile,
			})
		}
	}
}
