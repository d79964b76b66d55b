package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/bankdesk/internal/export"
	"github.com/cleared-dev/bankdesk/internal/view"
)

const listWidth = 100

func newAccountsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List banking accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctl, err := a.controller(cmd.Context(), printAlerts(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			st := ctl.State()
			fmt.Fprintln(cmd.OutOrStdout(), view.LeftTitle(st))
			fmt.Fprintln(cmd.OutOrStdout(), view.New().AccountList(st, -1, listWidth))
			return nil
		},
	}
}

func newFeedsCommand(opts *globalOptions) *cobra.Command {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "feeds <account-id>",
		Short: "List the bank transactions of an account",
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
				if err := export.WriteBankTransactions(cmd.OutOrStdout(), st.BankTransactions); err != nil {
					return fmt.Errorf("writing csv: %w", err)
				}
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.New().Feeds(st, -1, listWidth))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a listing")
	return cmd
}
