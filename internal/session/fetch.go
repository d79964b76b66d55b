package session

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// refreshAll fetches both per-account lists concurrently. One failing list
// does not cancel the other.
func (c *Controller) refreshAll(ctx context.Context, accountID string) error {
	var g errgroup.Group
	g.Go(func() error { return c.refreshBankTransactions(ctx, accountID) })
	g.Go(func() error { return c.refreshReconciliations(ctx, accountID) })
	return g.Wait()
}

// refreshBankTransactions re-fetches the feed rows. A response is applied only
// if the selection has not changed and no newer response was applied.
func (c *Controller) refreshBankTransactions(ctx context.Context, accountID string) error {
	c.mu.Lock()
	gen := c.gen
	c.txnSeq++
	seq := c.txnSeq
	c.mu.Unlock()

	txns, err := c.api.ListBankTransactions(ctx, accountID)
	if err != nil {
		c.logger.Error("fetching bank transactions failed",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("fetching bank transactions: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || seq <= c.txnApplied {
		c.logger.Debug("dropping stale bank transactions",
			slog.String("account_id", accountID),
			slog.Uint64("seq", seq),
		)
		return nil
	}
	c.txnApplied = seq
	c.st.BankTransactions = txns
	return nil
}

// refreshReconciliations re-fetches the history under the same rule as
// refreshBankTransactions. The current reconciliation picks up the server's
// balances when it appears in the new list.
func (c *Controller) refreshReconciliations(ctx context.Context, accountID string) error {
	c.mu.Lock()
	gen := c.gen
	c.recSeq++
	seq := c.recSeq
	c.mu.Unlock()

	recs, err := c.api.ListReconciliations(ctx, accountID)
	if err != nil {
		c.logger.Error("fetching reconciliations failed",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("fetching reconciliations: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || seq <= c.recApplied {
		c.logger.Debug("dropping stale reconciliations",
			slog.String("account_id", accountID),
			slog.Uint64("seq", seq),
		)
		return nil
	}
	c.recApplied = seq
	c.st.Reconciliations = recs
	if cur := c.st.CurrentReconciliation; cur != nil {
		for _, r := range recs {
			if r.ID == cur.ID {
				fresh := r
				c.st.CurrentReconciliation = &fresh
				break
			}
		}
	}
	return nil
}
