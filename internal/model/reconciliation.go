package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the backend lifecycle of a reconciliation session.
type ReconciliationStatus string

const (
	StatusPending     ReconciliationStatus = "Pending"
	StatusCompleted   ReconciliationStatus = "Completed"
	StatusDiscrepancy ReconciliationStatus = "Discrepancy"
)

// Reconciliation is a statement-matching session for one account.
type Reconciliation struct {
	ID                     string               `json:"id"`
	AccountID              string               `json:"account_id"`
	StatementDate          Date                 `json:"statement_date"`
	StatementEndingBalance decimal.Decimal      `json:"statement_ending_balance"`
	ReconciledBalance      decimal.Decimal      `json:"reconciled_balance"`
	Difference             decimal.Decimal      `json:"difference"`
	Status                 ReconciliationStatus `json:"status"`
	Notes                  string               `json:"notes"`
}

// NewReconciliation is the body of POST /reconciliations.
type NewReconciliation struct {
	AccountID              string    `json:"account_id"`
	StatementDate          time.Time `json:"statement_date"`
	StatementEndingBalance float64   `json:"statement_ending_balance"`
	Notes                  string    `json:"notes"`
}
