// Package cli implements rollcall-admin, the maintenance command line
// for the roster store. Every command opens the same store the server
// uses, driven by the same ROLLCALL_* environment.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/rollcall/internal/app"
	"github.com/MrSnakeDoc/rollcall/internal/config"
	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/service"
	"github.com/MrSnakeDoc/rollcall/internal/version"
)

// session is what a command gets to work with.
type session struct {
	cfg    *config.Config
	logger logger.Logger
	roster *service.Roster
	close  func()
}

// openSession loads config and connects the store. Tests swap it out.
var openSession = func(ctx context.Context, debug bool) (*session, error) {
	cfg := config.Load()

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log := logger.New(level, cfg.PrettyLog).Named("admin")

	st, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:    cfg,
		logger: log,
		roster: service.NewRoster(st, cfg.SuperAdminPassword, log, nil),
		close: func() {
			if err := st.Close(); err != nil {
				log.Warn("failed to close store", logger.Error(err))
			}
			_ = log.Sync()
		},
	}, nil
}

// debug enables debug logging for all commands
var debug bool

// NewRootCommand builds the rollcall-admin command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rollcall-admin",
		Short: "Maintain the rollcall roster store",
		Long: `rollcall-admin seeds, migrates and inspects the roster store used by the
rollcall server. It reads the same ROLLCALL_* environment (and .env file).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	})

	rootCmd.AddCommand(
		newSeedCommand(),
		newMigrateDomainsCommand(),
		newVerifyCommand(),
		newImportScheduleCommand(),
	)

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	// Load .env early so the store settings are visible to config.Load
	_ = godotenv.Load()

	return NewRootCommand().ExecuteContext(context.Background())
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, debug)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.close()

	return fn(ctx, s)
}
