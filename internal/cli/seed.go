package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/rollcall/internal/scheduler"
)

func newSeedCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load domains, students and schedule from a seed directory",
		Long: `Load domains.json, students.json and schedule.json (or .yaml/.yml) from a
directory and write them to the store. Each collection is written atomically and
running the same seed twice leaves the store unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return errors.New("--dir is required")
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				res, err := scheduler.NewSeeder(s.roster, s.logger).Seed(ctx, dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d domains, %d students, %d schedule rows\n",
					res.Domains, res.Students, res.Schedule)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the seed files")
	return cmd
}
