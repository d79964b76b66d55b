package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cleared-dev/bankdesk/internal/activity"
	"github.com/cleared-dev/bankdesk/internal/bankapi"
	"github.com/cleared-dev/bankdesk/internal/importer"
	"github.com/cleared-dev/bankdesk/internal/model"
)

// OpenImport opens the import modal for the selected account.
func (c *Controller) OpenImport() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.SelectedAccount == nil {
		return ErrNoAccount
	}
	c.st.ImportOpen = true
	return nil
}

// CloseImport discards the chosen file and any preview and closes the modal.
func (c *Controller) CloseImport() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.ImportOpen = false
	c.st.File = nil
	c.st.Preview = nil
}

// BackToFile discards the preview and the chosen file; the modal stays open.
func (c *Controller) BackToFile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.File = nil
	c.st.Preview = nil
}

// ChooseFile sets the statement file to preview.
func (c *Controller) ChooseFile(st importer.Statement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.File = &st
}

// PreviewImport uploads the chosen file to the preview endpoint for its kind
// and holds the result. Nothing is persisted.
func (c *Controller) PreviewImport(ctx context.Context) error {
	c.mu.Lock()
	if c.st.Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.st.SelectedAccount == nil {
		c.mu.Unlock()
		return ErrNoAccount
	}
	if c.st.File == nil {
		c.mu.Unlock()
		return ErrNoFile
	}
	accountID := c.st.SelectedAccount.ID
	file := *c.st.File
	gen := c.gen
	c.st.Loading = true
	c.mu.Unlock()
	defer c.end()

	logger := c.logger.With(
		slog.String("account_id", accountID),
		slog.String("file", file.Name),
		slog.String("kind", string(file.Kind())),
	)

	preview, err := c.uploadStatement(ctx, accountID, file)
	if err != nil {
		logger.Error("import preview failed", slog.String("error", err.Error()))
		c.alert(prefixPreviewFailed + bankapi.DetailMessage(err))
		return err
	}

	c.mu.Lock()
	if gen == c.gen {
		c.st.Preview = preview
	}
	c.mu.Unlock()

	logger.Info("import previewed",
		slog.Int("total", preview.TotalTransactions),
		slog.Int("errors", len(preview.Errors)),
	)
	return nil
}

func (c *Controller) uploadStatement(ctx context.Context, accountID string, file importer.Statement) (*model.ImportPreview, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	preview, err := c.api.PreviewImport(ctx, file.Kind(), accountID, file.Name, f)
	if err != nil {
		return nil, fmt.Errorf("previewing %s: %w", file.Name, err)
	}
	return preview, nil
}

// ConfirmImport persists the previewed rows. On success the modal closes and
// bank transactions are re-fetched; on failure the preview is kept so the
// confirm can be retried.
func (c *Controller) ConfirmImport(ctx context.Context) error {
	c.mu.Lock()
	if c.st.Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.st.Preview == nil {
		c.mu.Unlock()
		return ErrNoPreview
	}
	if c.st.SelectedAccount == nil {
		c.mu.Unlock()
		return ErrNoAccount
	}
	accountID := c.st.SelectedAccount.ID
	preview := c.st.Preview
	fileName := ""
	if c.st.File != nil {
		fileName = c.st.File.Name
	}
	gen := c.gen
	c.st.Loading = true
	c.mu.Unlock()

	logger := c.logger.With(slog.String("account_id", accountID))

	if err := c.api.ConfirmImport(ctx, accountID, preview); err != nil {
		c.end()
		logger.Error("import confirm failed", slog.String("error", err.Error()))
		c.alert(prefixConfirmFailed + bankapi.DetailMessage(err))
		return fmt.Errorf("confirming import: %w", err)
	}

	c.mu.Lock()
	if gen == c.gen {
		c.st.ImportOpen = false
		c.st.Preview = nil
		c.st.File = nil
	}
	c.st.Loading = false
	c.mu.Unlock()

	n := len(preview.PreviewTransactions)
	logger.Info("import confirmed", slog.Int("transactions", n))
	c.record(activity.Entry{
		Action:    activity.ActionImportConfirmed,
		AccountID: accountID,
		Details:   importDetails(n, fileName),
	})

	_ = c.refreshBankTransactions(ctx, accountID)
	c.alert(MsgImported)
	c.refreshHost(ctx)
	return nil
}

func importDetails(n int, fileName string) string {
	if fileName == "" {
		return fmt.Sprintf("%d transactions", n)
	}
	return fmt.Sprintf("%d transactions from %s", n, fileName)
}
