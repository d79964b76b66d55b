package bankapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/cleared-dev/bankdesk/internal/importer"
	"github.com/cleared-dev/bankdesk/internal/model"
)

// ListAccounts returns every account in the chart of accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := c.doJSON(ctx, http.MethodGet, "/accounts", nil, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListTransactions returns the ledger transactions.
func (c *Client) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	var txns []model.Transaction
	if err := c.doJSON(ctx, http.MethodGet, "/transactions", nil, nil, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// ListBankTransactions returns the bank-feed rows of one account.
func (c *Client) ListBankTransactions(ctx context.Context, accountID string) ([]model.BankTransaction, error) {
	q := url.Values{"account_id": {accountID}}
	var txns []model.BankTransaction
	if err := c.doJSON(ctx, http.MethodGet, "/bank-transactions", q, nil, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// ListReconciliations returns the reconciliation history of one account.
func (c *Client) ListReconciliations(ctx context.Context, accountID string) ([]model.Reconciliation, error) {
	q := url.Values{"account_id": {accountID}}
	var recs []model.Reconciliation
	if err := c.doJSON(ctx, http.MethodGet, "/reconciliations", q, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// PreviewImport uploads a statement as multipart field "file" to the
// kind-specific preview endpoint. Nothing is persisted by the backend.
func (c *Client) PreviewImport(ctx context.Context, kind importer.Kind, accountID, fileName string, content io.Reader) (*model.ImportPreview, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("reading statement %s: %w", fileName, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	path := fmt.Sprintf("/bank-import/%s/%s", kind, url.PathEscape(accountID))
	var preview model.ImportPreview
	if err := c.do(ctx, http.MethodPost, path, nil, &buf, mw.FormDataContentType(), &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// ConfirmImport posts the previewed rows for persistence.
func (c *Client) ConfirmImport(ctx context.Context, accountID string, preview *model.ImportPreview) error {
	payload, err := preview.ConfirmPayload()
	if err != nil {
		return err
	}
	path := "/bank-import/confirm/" + url.PathEscape(accountID)
	return c.doJSON(ctx, http.MethodPost, path, nil, payload, nil)
}

// CreateReconciliation starts a reconciliation session.
func (c *Client) CreateReconciliation(ctx context.Context, req model.NewReconciliation) (*model.Reconciliation, error) {
	var rec model.Reconciliation
	if err := c.doJSON(ctx, http.MethodPost, "/reconciliations", nil, req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetReconciliation attaches a bank transaction to a reconciliation, or
// detaches it when reconciliationID is nil. A nil id omits the query
// parameter, which the backend reads as null.
func (c *Client) SetReconciliation(ctx context.Context, bankTxnID string, reconciliationID *string) error {
	var q url.Values
	if reconciliationID != nil {
		q = url.Values{"reconciliation_id": {*reconciliationID}}
	}
	path := fmt.Sprintf("/bank-transactions/%s/reconcile", url.PathEscape(bankTxnID))
	return c.doJSON(ctx, http.MethodPut, path, q, nil, nil)
}

// CompleteReconciliation closes a reconciliation session.
func (c *Client) CompleteReconciliation(ctx context.Context, reconciliationID string) error {
	path := fmt.Sprintf("/reconciliations/%s/complete", url.PathEscape(reconciliationID))
	return c.doJSON(ctx, http.MethodPost, path, nil, nil, nil)
}
