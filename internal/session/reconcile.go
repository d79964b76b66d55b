package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cleared-dev/bankdesk/internal/activity"
	"github.com/cleared-dev/bankdesk/internal/bankapi"
	"github.com/cleared-dev/bankdesk/internal/model"
)

// OpenReconcile opens the start-reconciliation modal.
func (c *Controller) OpenReconcile() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.SelectedAccount == nil {
		return ErrNoAccount
	}
	c.st.ReconcileOpen = true
	return nil
}

// CloseReconcile closes the start-reconciliation modal.
func (c *Controller) CloseReconcile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.ReconcileOpen = false
}

// StartReconciliation creates a reconciliation for the selected account and
// makes it current.
func (c *Controller) StartReconciliation(ctx context.Context, form ReconcileForm) (*model.Reconciliation, error) {
	c.mu.Lock()
	if c.st.Loading {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.st.SelectedAccount == nil {
		c.mu.Unlock()
		return nil, ErrNoAccount
	}
	accountID := c.st.SelectedAccount.ID
	c.mu.Unlock()

	parsed, err := form.parse()
	if err != nil {
		c.alert(prefixStartFailed + errorMessage(err))
		return nil, err
	}

	if err := c.begin(); err != nil {
		return nil, err
	}

	logger := c.logger.With(slog.String("account_id", accountID))
	rec, err := c.api.CreateReconciliation(ctx, model.NewReconciliation{
		AccountID:              accountID,
		StatementDate:          parsed.date,
		StatementEndingBalance: parsed.balance,
		Notes:                  parsed.notes,
	})
	if err != nil {
		c.end()
		logger.Error("starting reconciliation failed", slog.String("error", err.Error()))
		c.alert(prefixStartFailed + bankapi.DetailMessage(err))
		return nil, fmt.Errorf("starting reconciliation: %w", err)
	}

	c.mu.Lock()
	if c.st.SelectedAccount != nil && c.st.SelectedAccount.ID == accountID {
		current := *rec
		c.st.CurrentReconciliation = &current
		c.st.ReconcileOpen = false
		c.st.Tab = TabReconcile
	}
	c.st.Loading = false
	c.mu.Unlock()

	logger.Info("reconciliation started", slog.String("reconciliation_id", rec.ID))
	c.record(activity.Entry{
		Action:           activity.ActionReconciliationStarted,
		AccountID:        accountID,
		ReconciliationID: rec.ID,
		Details: fmt.Sprintf("statement %s, ending balance %s",
			parsed.date.Format("2006-01-02"), rec.StatementEndingBalance.StringFixed(2)),
	})

	_ = c.refreshReconciliations(ctx, accountID)
	return rec, nil
}

// errorMessage strips the sentinel prefix from form errors.
func errorMessage(err error) string {
	msg := err.Error()
	prefix := ErrInvalidForm.Error() + ": "
	if errors.Is(err, ErrInvalidForm) && len(msg) > len(prefix) {
		return msg[len(prefix):]
	}
	return msg
}

// ToggleReconciled attaches a bank transaction to the current reconciliation
// when checked, or detaches it otherwise. Bank transactions are re-fetched on
// success; failures are logged and returned but never alerted.
func (c *Controller) ToggleReconciled(ctx context.Context, bankTxnID string, checked bool) error {
	c.mu.Lock()
	if c.st.SelectedAccount == nil {
		c.mu.Unlock()
		return ErrNoAccount
	}
	accountID := c.st.SelectedAccount.ID
	var reconciliationID *string
	if checked && c.st.CurrentReconciliation != nil {
		id := c.st.CurrentReconciliation.ID
		reconciliationID = &id
	}
	c.mu.Unlock()

	logger := c.logger.With(
		slog.String("account_id", accountID),
		slog.String("bank_transaction_id", bankTxnID),
	)

	if err := c.api.SetReconciliation(ctx, bankTxnID, reconciliationID); err != nil {
		logger.Error("updating reconciliation status failed", slog.String("error", err.Error()))
		return fmt.Errorf("updating reconciliation status: %w", err)
	}

	entry := activity.Entry{
		Action:    activity.ActionItemUnreconciled,
		AccountID: accountID,
		Details:   bankTxnID,
	}
	if reconciliationID != nil {
		entry.Action = activity.ActionItemReconciled
		entry.ReconciliationID = *reconciliationID
	}
	c.record(entry)

	return c.refreshBankTransactions(ctx, accountID)
}

// CompleteReconciliation closes the current reconciliation on the backend,
// clears it, and re-fetches both lists.
func (c *Controller) CompleteReconciliation(ctx context.Context) error {
	c.mu.Lock()
	if c.st.Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.st.CurrentReconciliation == nil || c.st.SelectedAccount == nil {
		c.mu.Unlock()
		return ErrNoActiveReconciliation
	}
	accountID := c.st.SelectedAccount.ID
	reconciliationID := c.st.CurrentReconciliation.ID
	c.st.Loading = true
	c.mu.Unlock()

	logger := c.logger.With(
		slog.String("account_id", accountID),
		slog.String("reconciliation_id", reconciliationID),
	)

	if err := c.api.CompleteReconciliation(ctx, reconciliationID); err != nil {
		c.end()
		logger.Error("completing reconciliation failed", slog.String("error", err.Error()))
		c.alert(prefixCompleteFailed + bankapi.DetailMessage(err))
		return fmt.Errorf("completing reconciliation: %w", err)
	}

	c.mu.Lock()
	if cur := c.st.CurrentReconciliation; cur != nil && cur.ID == reconciliationID {
		c.st.CurrentReconciliation = nil
	}
	c.st.Loading = false
	c.mu.Unlock()

	logger.Info("reconciliation completed")
	c.record(activity.Entry{
		Action:           activity.ActionReconciliationCompleted,
		AccountID:        accountID,
		ReconciliationID: reconciliationID,
	})

	_ = c.refreshAll(ctx, accountID)
	c.alert(MsgReconciliationDone)
	c.refreshHost(ctx)
	return nil
}

// ResumeReconciliation makes a pending reconciliation from the fetched history
// current again and switches to the reconcile tab.
func (c *Controller) ResumeReconciliation(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.st.Reconciliations {
		if r.ID != id {
			continue
		}
		if r.Status != model.StatusPending {
			return ErrNotResumable
		}
		current := r
		c.st.CurrentReconciliation = &current
		c.st.Tab = TabReconcile
		return nil
	}
	return ErrNotResumable
}
