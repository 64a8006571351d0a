package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/rollcall/internal/logger"
	"github.com/MrSnakeDoc/rollcall/internal/sources/roster"
)

func newImportScheduleCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import-schedule <file>",
		Short: "Replace the stored schedule with an xlsx, json or yaml file",
		Long: `Read a schedule file and replace every stored schedule row with its contents.
Rows without a roll number are skipped and listed. With --dry-run nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, skipped, err := roster.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderImportErrors(out, skipped)

			if dryRun {
				fmt.Fprintf(out, "dry run: %d schedule rows parsed, nothing written\n", len(items))
				return nil
			}

			return withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.roster.SaveSchedule(ctx, items); err != nil {
					return err
				}
				s.logger.Info("schedule imported",
					logger.String("file", args[0]),
					logger.Int("rows", len(items)),
					logger.Int("skipped", len(skipped)))
				fmt.Fprintf(out, "imported %d schedule rows (%d skipped)\n", len(items), len(skipped))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file without writing to the store")
	return cmd
}

func renderImportErrors(w io.Writer, errs []roster.ImportError) {
	if len(errs) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Row", "Skipped because"})
	for _, e := range errs {
		t.AppendRow(table.Row{e.Row, e.Error})
	}
	t.Render()
}
