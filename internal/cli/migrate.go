package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newMigrateDomainsCommand() *cobra.Command {
	var (
		from []string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "migrate-domains",
		Short: "Merge retired domains into a new one",
		Long: `Rewrite every student enrolled in one of the --from domains so they are
enrolled in --to instead, then delete the retired domains.`,
		Example: `  rollcall-admin migrate-domains --from Photography --from Videography --to "Video & Photo Editing"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(from) == 0 {
				return errors.New("at least one --from domain is required")
			}
			if strings.TrimSpace(to) == "" {
				return errors.New("--to is required")
			}
			return withSession(cmd, func(ctx context.Context, s *session) error {
				n, err := s.roster.MigrateDomains(ctx, from, to)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %d students from %s to %q\n",
					n, strings.Join(from, ", "), to)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&from, "from", nil, "domain to retire, taken verbatim (repeatable)")
	cmd.Flags().StringVar(&to, "to", "", "domain that replaces the retired ones")
	return cmd
}
