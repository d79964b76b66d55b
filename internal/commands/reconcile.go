package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/bankdesk/internal/export"
	"github.com/cleared-dev/bankdesk/internal/session"
	"github.com/cleared-dev/bankdesk/internal/view"
)

func newReconcileCommand(opts *globalOptions) *cobra.Command {
	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Bank reconciliation operations",
	}
	reconcileCmd.AddCommand(
		newReconcileStartCommand(opts),
		newReconcileListCommand(opts),
		newReconcileMarkCommand(opts),
		newReconcileCompleteCommand(opts),
	)
	return reconcileCmd
}

func newReconcileStartCommand(opts *globalOptions) *cobra.Command {
	var form session.ReconcileForm

	cmd := &cobra.Command{
		Use:   "start <account-id>",
		Short: "Start a reconciliation against a bank statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctl, err := a.selectAccount(cmd, args[0])
			if err != nil {
				return err
			}
			if err := ctl.OpenReconcile(); err != nil {
				return err
			}
			rec, err := ctl.StartReconciliation(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started reconciliation %s (statement %s, balance %s)\n",
				rec.ID, rec.StatementDate.Short(), view.Money(rec.StatementEndingBalance))
			return nil
		},
	}

	cmd.Flags().StringVar(&form.StatementDate, "date", "", "statement ending date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&form.EndingBalance, "balance", "", "statement ending balance")
	cmd.Flags().StringVar(&form.Notes, "notes", "", "notes")
	return cmd
}

func newReconcileListCommand(opts *globalOptions) *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "list <account-id>",
		Short: "Show the reconciliation history of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctl, err := a.selectAccount(cmd, args[0])
			if err != nil {
				return err
			}
			st := ctl.State()
			if asCSV {
				if err := export.WriteReconciliations(cmd.OutOrStdout(), st.Reconciliations); err != nil {
					return fmt.Errorf("writing csv: %w", err)
				}
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.New().Reconcile(st, -1, listWidth))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a listing")
	return cmd
}

func newReconcileMarkCommand(opts *globalOptions) *cobra.Command {
	var unmark bool

	cmd := &cobra.Command{
		Use:   "mark <account-id> <reconciliation-id> <bank-transaction-id>...",
		Short: "Mark bank transactions as reconciled in a pending reconciliation",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctl, err := a.selectAccount(cmd, args[0])
			if err != nil {
				return err
			}
			if err := ctl.ResumeReconciliation(args[1]); err != nil {
				return fmt.Errorf("resuming %s: %w", args[1], err)
			}
			for _, id := range args[2:] {
				if err := ctl.ToggleReconciled(cmd.Context(), id, !unmark); err != nil {
					return err
				}
			}

			verb := "Marked"
			if unmark {
				verb = "Unmarked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d bank transactions\n", verb, len(args)-2)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unmark, "unmark", false, "detach the transactions instead")
	return cmd
}

func newReconcileCompleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <account-id> <reconciliation-id>",
		Short: "Complete a pending reconciliation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctl, err := a.selectAccount(cmd, args[0])
			if err != nil {
				return err
			}
			if err := ctl.ResumeReconciliation(args[1]); err != nil {
				return fmt.Errorf("resuming %s: %w", args[1], err)
			}
			return ctl.CompleteReconciliation(cmd.Context())
		},
	}
}
