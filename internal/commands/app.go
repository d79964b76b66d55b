package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/bankdesk/internal/activity"
	"github.com/cleared-dev/bankdesk/internal/bankapi"
	"github.com/cleared-dev/bankdesk/internal/config"
	"github.com/cleared-dev/bankdesk/internal/logging"
	"github.com/cleared-dev/bankdesk/internal/model"
	"github.com/cleared-dev/bankdesk/internal/session"
)

// app is the wiring shared by commands that talk to the backend.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *bankapi.Client
	activity *activity.Log
	closer   io.Closer
}

// openApp resolves configuration and builds the logger and API client.
// When logToFile is set the logger writes to the configured log file
// instead of stderr.
func openApp(cmd *cobra.Command, opts *globalOptions, logToFile bool) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if logToFile && cfg.Logging.File != "" {
		a.logger, a.closer, err = logging.OpenFile(cfg.Path(cfg.Logging.File), cfg.Logging.Level, cfg.Logging.Format)
	} else {
		a.logger, err = logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a.client, err = bankapi.New(cfg.Backend.URL,
		bankapi.WithTimeout(cfg.Backend.Timeout),
		bankapi.WithLogger(a.logger),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating api client: %w", err)
	}

	a.activity = activity.NewLog(cfg.Path(cfg.ActivityLog))
	return a, nil
}

func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Resolve(opts.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.backendURL != "" {
		cfg.Backend.URL = opts.backendURL
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Close releases the log file, if any.
func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// loadHost fetches the chart of accounts and the ledger transactions the
// banking screen is hosted with.
func (a *app) loadHost(ctx context.Context) ([]model.Account, []model.Transaction, error) {
	var (
		accts []model.Account
		txns  []model.Transaction
		g     errgroup.Group
	)
	g.Go(func() error {
		var err error
		accts, err = a.client.ListAccounts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		txns, err = a.client.ListTransactions(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("loading accounts: %w", err)
	}
	return accts, txns, nil
}

// controller builds a session controller over freshly loaded host data. The
// host data is reloaded whenever the controller reports a balance change.
func (a *app) controller(ctx context.Context, notifier session.Notifier) (*session.Controller, error) {
	accts, txns, err := a.loadHost(ctx)
	if err != nil {
		return nil, err
	}

	var ctl *session.Controller
	refresh := func(ctx context.Context) {
		accts, txns, err := a.loadHost(ctx)
		if err != nil {
			a.logger.Warn("refreshing accounts failed", slog.String("error", err.Error()))
			return
		}
		ctl.SetHostData(accts, txns)
	}
	ctl = session.New(a.client, session.Host{
		Accounts:     accts,
		Transactions: txns,
		OnRefresh:    refresh,
	},
		session.WithLogger(a.logger),
		session.WithNotifier(notifier),
		session.WithRecorder(a.activity),
	)
	return ctl, nil
}

// printAlerts writes notifier messages to w, one per line.
func printAlerts(w io.Writer) session.Notifier {
	return session.NotifierFunc(func(msg string) {
		fmt.Fprintln(w, msg)
	})
}

// selectAccount loads a controller and selects accountID on it.
func (a *app) selectAccount(cmd *cobra.Command, accountID string) (*session.Controller, error) {
	ctx := cmd.Context()
	ctl, err := a.controller(ctx, printAlerts(cmd.OutOrStdout()))
	if err != nil {
		return nil, err
	}
	if err := ctl.SelectAccount(ctx, accountID); err != nil {
		return nil, fmt.Errorf("selecting account %s: %w", accountID, err)
	}
	return ctl, nil
}
