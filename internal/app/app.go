package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/rollcall/internal/config"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver"
	"github.com/MrSnakeDoc/rollcall/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/metrics"
	"github.com/MrSnakeDoc/rollcall/internal/scheduler"
	"github.com/MrSnakeDoc/rollcall/internal/service"
	"github.com/MrSnakeDoc/rollcall/internal/store"
	"github.com/MrSnakeDoc/rollcall/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	store    store.Store
	roster   *service.Roster
	reloader *scheduler.ScheduleReloader
	sweeper  *scheduler.OrphanSweeper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Connect the record store early - fail fast if unavailable
	st, err := OpenStore(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.StoreKind, err)
		os.Exit(1)
	}
	loggerClient.Info("store initialized", logger.String("kind", string(st.Kind())))

	m := metrics.New()
	roster := service.NewRoster(st, cfg.SuperAdminPassword, loggerClient, m)
	status := scheduler.NewStatus()

	// Apply seed files before anything reads the store
	if cfg.SeedDir != "" {
		if _, err := scheduler.NewSeeder(roster, loggerClient).Seed(context.Background(), cfg.SeedDir); err != nil {
			loggerClient.Errorf("Failed to seed from %s: %v", cfg.SeedDir, err)
			os.Exit(1)
		}
	}

	// Initialize schedule reloader (if a schedule file is configured)
	var reloader *scheduler.ScheduleReloader
	var reloadTrigger chan struct{}
	if cfg.ScheduleFile != "" {
		loggerClient.Info("schedule file configured, initializing schedule reloader",
			logger.String("file", cfg.ScheduleFile))
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewScheduleReloader(
			cfg.ScheduleFile,
			roster,
			status,
			m,
			loggerClient,
			cfg.ReloadInterval,
			reloadTrigger,
		)
	} else {
		loggerClient.Info("schedule file not configured, schedule is managed through the admin API")
	}

	sweeper := scheduler.NewOrphanSweeper(
		roster,
		status,
		m,
		loggerClient,
		cfg.OrphanInterval,
		cfg.PruneOrphans,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		AllowedHosts:      cfg.AllowedHosts,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		TrustProxy:        cfg.TrustProxy,
		CORSOrigins:       cfg.CORSOrigins,
		LoginBurst:        cfg.LoginBurst,
		LoginRefillPerMin: cfg.LoginRefillPerMin,
		Roster:            roster,
		Metrics:           m,
		Status:            status,
		StoreKind:         string(st.Kind()),
		EventDate:         cfg.EventDate,
		ScheduleFile:      cfg.ScheduleFile,
		ReloadTrigger:     reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   server,
		store:    st,
		roster:   roster,
		reloader: reloader,
		sweeper:  sweeper,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Rollcall v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start schedule reloader (if enabled)
	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start schedule reloader: %w", err)
		}
		a.logger.Info("schedule reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	// Start orphan sweeper
	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start orphan sweeper: %w", err)
	}
	a.logger.Info("orphan sweeper started",
		logger.Duration("interval", a.cfg.OrphanInterval),
		logger.Bool("prune", a.cfg.PruneOrphans))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}
	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close %s store: %v", a.store.Kind(), err)
	} else {
		a.logger.Info("✅ Store closed cleanly")
	}

	a.logger.Info("✅ Rollcall stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
