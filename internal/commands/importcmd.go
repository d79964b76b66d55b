package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/bankdesk/internal/importer"
	"github.com/cleared-dev/bankdesk/internal/session"
	"github.com/cleared-dev/bankdesk/internal/view"
)

type importOptions struct {
	yes     bool
	archive bool
}

func newImportCommand(opts *globalOptions) *cobra.Command {
	var iopts importOptions

	cmd := &cobra.Command{
		Use:   "import <account-id> [file]",
		Short: "Preview a bank statement and optionally confirm it",
		Long: "Uploads a CSV or QFX/OFX statement for preview. Nothing is saved unless\n" +
			"--yes is given. Without a file, every statement in the import directory\n" +
			"is processed.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) > 1 {
				file = args[1]
			}
			return runImport(cmd, opts, args[0], file, iopts)
		},
	}

	cmd.Flags().BoolVarP(&iopts.yes, "yes", "y", false, "confirm the import after previewing")
	cmd.Flags().BoolVar(&iopts.archive, "archive", false, "move confirmed files to the processed directory")
	return cmd
}

func runImport(cmd *cobra.Command, opts *globalOptions, accountID, file string, iopts importOptions) error {
	a, err := openApp(cmd, opts, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var files []importer.Statement
	if file != "" {
		st, err := importer.StatementFromPath(file)
		if err != nil {
			return err
		}
		files = append(files, st)
	} else {
		dir := a.cfg.Path(a.cfg.Import.Dir)
		files, err = importer.Scan(dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No statements found in %s\n", dir)
			return nil
		}
	}

	ctl, err := a.selectAccount(cmd, accountID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var errs []error
	for _, st := range files {
		if err := importOne(cmd, ctl, st, iopts, out); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.Name, err))
			continue
		}
		if iopts.yes && iopts.archive {
			dst, err := importer.MarkProcessed(st, a.cfg.Path(a.cfg.Import.ProcessedDir))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "Moved %s to %s\n", st.Name, dst)
		}
	}
	return errors.Join(errs...)
}

func importOne(cmd *cobra.Command, ctl *session.Controller, st importer.Statement, opts importOptions, out io.Writer) error {
	ctx := cmd.Context()
	if err := ctl.OpenImport(); err != nil {
		return err
	}
	defer ctl.CloseImport()

	ctl.ChooseFile(st)
	if err := ctl.PreviewImport(ctx); err != nil {
		return err
	}

	preview := ctl.State().Preview
	r := view.New()
	fmt.Fprintf(out, "%s (%s)\n", st.Name, st.Kind())
	fmt.Fprintln(out, r.PreviewSummary(preview))
	fmt.Fprintln(out, r.PreviewTable(preview, listWidth))

	if !opts.yes {
		fmt.Fprintln(out, "Preview only. Re-run with --yes to import.")
		return nil
	}
	return ctl.ConfirmImport(ctx)
}
