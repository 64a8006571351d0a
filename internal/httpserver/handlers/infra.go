package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/scheduler"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Kind       string `json:"kind,omitempty"`
	File       string `json:"file,omitempty"`
	Rows       *int   `json:"rows,omitempty"`
	Skipped    *int   `json:"skipped,omitempty"`
	Orphans    *int   `json:"orphans,omitempty"`
	Pruned     *int   `json:"pruned,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	LastSweep  string `json:"last_sweep,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var snap scheduler.StatusSnapshot
		if d.Status != nil {
			snap = d.Status.Snapshot()
		}

		components := map[string]componentStatus{
			"store":    checkStore(r.Context(), d),
			"schedule": scheduleStatus(d, snap),
			"orphans": {
				OK:        snap.Orphans-snap.Pruned == 0,
				Orphans:   &snap.Orphans,
				Pruned:    &snap.Pruned,
				LastSweep: formatTime(snap.LastSweep),
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.Roster.Store().Ping(ctx); err != nil {
		return componentStatus{OK: false, Kind: d.StoreKind, Error: "unreachable"}
	}
	return componentStatus{OK: true, Kind: d.StoreKind}
}

func scheduleStatus(d deps.Deps, snap scheduler.StatusSnapshot) componentStatus {
	if d.ScheduleFile == "" {
		return componentStatus{OK: true, Mode: "manual"}
	}
	return componentStatus{
		OK:         snap.ReloadError == "",
		File:       d.ScheduleFile,
		Rows:       &snap.ReloadRows,
		Skipped:    &snap.SkippedRows,
		LastReload: formatTime(snap.LastReload),
		Mode:       "file",
		Error:      snap.ReloadError,
	}
}

// determineMode is "critical" when lookups cannot work, "degraded" when data
// may be stale, and "ok" otherwise.
func determineMode(components map[string]componentStatus) string {
	if !components["store"].OK {
		return "critical"
	}
	if !components["schedule"].OK {
		return "degraded"
	}
	return "ok"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}
