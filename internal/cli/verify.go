package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/rollcall/internal/domain"
	"github.com/MrSnakeDoc/rollcall/internal/service"
)

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <rollNo>",
		Short: "Print the resolved schedule of one student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				lookup, err := s.roster.Resolve(ctx, args[0])
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("no student with roll number %q", args[0])
				}
				if err != nil {
					return err
				}
				renderLookup(cmd.OutOrStdout(), lookup, s.cfg.EventDate)
				return nil
			})
		},
	}
}

// renderLookup prints a student header followed by one row per domain.
func renderLookup(w io.Writer, l *service.Lookup, eventDate string) {
	fmt.Fprintf(w, "%s (%s)\n", l.Student.Name, l.Student.RollNo)
	if eventDate != "" {
		fmt.Fprintf(w, "Event date: %s\n", eventDate)
	}

	if len(l.Assignments) == 0 {
		fmt.Fprintln(w, "No domains assigned")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Domain", "Time", "Meet Link", "Joinable"})
	for _, a := range l.Assignments {
		t.AppendRow(table.Row{
			a.Domain,
			orDash(a.TimeSlot),
			orDash(a.MeetLink),
			yesNo(a.Joinable),
		})
	}
	t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
