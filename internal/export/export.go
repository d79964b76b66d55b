// Package export writes bank transactions and reconciliation history as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/bankdesk/internal/model"
)

// Headers of the exported files.
const (
	BankTransactionsHeader = "id,date,description,amount,reconciled,reconciliation_id"
	ReconciliationsHeader  = "id,statement_date,statement_ending_balance,reconciled_balance,difference,status,notes"
)

const dateLayout = "2006-01-02"

func formatDate(d model.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalBankTransaction converts a feed row to a CSV record.
func MarshalBankTransaction(t model.BankTransaction) []string {
	rid := ""
	if t.ReconciliationID != nil {
		rid = *t.ReconciliationID
	}
	return []string{
		t.ID,
		formatDate(t.Date),
		t.Description,
		t.Amount.StringFixed(2),
		strconv.FormatBool(t.Reconciled),
		rid,
	}
}

// MarshalReconciliation converts a reconciliation to a CSV record.
func MarshalReconciliation(r model.Reconciliation) []string {
	return []string{
		r.ID,
		formatDate(r.StatementDate),
		r.StatementEndingBalance.StringFixed(2),
		r.ReconciledBalance.StringFixed(2),
		r.Difference.StringFixed(2),
		string(r.Status),
		r.Notes,
	}
}

// WriteBankTransactions writes a header and one row per feed row.
func WriteBankTransactions(w io.Writer, txns []model.BankTransaction) error {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, MarshalBankTransaction(t))
	}
	return write(w, BankTransactionsHeader, rows)
}

// WriteReconciliations writes a header and one row per reconciliation.
func WriteReconciliations(w io.Writer, recs []model.Reconciliation) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, MarshalReconciliation(r))
	}
	return write(w, ReconciliationsHeader, rows)
}

func write(w io.Writer, header string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
