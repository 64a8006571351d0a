package deps

import (
	"time"

	"github.com/MrSnakeDoc/rollcall/internal/httpserver/mw"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/metrics"
	"github.com/MrSnakeDoc/rollcall/internal/scheduler"
	"github.com/MrSnakeDoc/rollcall/internal/service"
)

type Deps struct {
	Logger            logger.Logger
	StartTime         time.Time
	Version           string
	Commit            string
	BuildDate         string
	GoVersion         string
	TimeNow           func() time.Time  // for testing, defaults to time.Now
	AllowedHosts      []string          // Host headers allowed to access infra endpoints
	AllowedCIDRS      []string          // IPs allowed to access healthz/readyz/infra/metrics endpoints
	TrustProxy        bool              // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins       []string          // browser origins allowed to call /api
	LoginBurst        int               // login attempts allowed in a burst per IP
	LoginRefillPerMin int               // login attempts refilled per minute per IP
	AdminGuard        *mw.Limiter       // shared by login and every admin route; built from the Login* fields when nil
	Roster            *service.Roster   // students, domains, schedule and authentication
	Metrics           *metrics.Metrics  // Prometheus collectors
	Status            *scheduler.Status // background job status
	StoreKind         string            // "postgres" | "redis" | "memory"
	EventDate         string            // date shown with every lookup
	ScheduleFile      string            // schedule file re-imported by the reloader ("" if disabled)
	ReloadTrigger     chan struct{}     // Channel to trigger manual schedule reload (nil if disabled)
}
