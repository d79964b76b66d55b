package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/bankdesk/internal/activity"
)

func newActivityCommand(opts *globalOptions) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Print the activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			entries, err := activity.Read(cfg.Path(cfg.ActivityLog))
			if err != nil {
				return fmt.Errorf("reading activity log: %w", err)
			}

			out := cmd.OutOrStdout()
			n := 0
			for _, e := range entries {
				if accountID != "" && e.AccountID != accountID {
					continue
				}
				n++
				line := fmt.Sprintf("%s  %-26s %s", e.Timestamp.Local().Format(time.DateTime), e.Action, e.AccountID)
				if e.ReconciliationID != "" {
					line += " " + e.ReconciliationID
				}
				if e.Details != "" {
					line += "  " + e.Details
				}
				fmt.Fprintln(out, line)
			}
			if n == 0 {
				fmt.Fprintln(out, "No activity recorded")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "only show entries for this account")
	return cmd
}
