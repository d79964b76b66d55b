package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/bankdesk/internal/tui"
)

func newCenterCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "center",
		Short: "Open the interactive banking screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCenter(cmd, opts)
		},
	}
}

func runCenter(cmd *cobra.Command, opts *globalOptions) error {
	a, err := openApp(cmd, opts, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	alerts := tui.NewAlerts()
	ctl, err := a.controller(ctx, alerts)
	if err != nil {
		return err
	}

	a.logger.Info("banking screen started", "backend", a.client.BaseURL())
	return tui.Run(ctx, tui.New(ctx, ctl, alerts, a.logger))
}
