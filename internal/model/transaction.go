package model

import (
	"github.com/shopspring/decimal"
)

// Transaction is a ledger transaction supplied by the host screen.
type Transaction struct {
	ID              string          `json:"id"`
	TransactionType string          `json:"transaction_type"`
	ReferenceNumber string          `json:"reference_number"`
	Date            Date            `json:"date"`
	Total           decimal.Decimal `json:"total"`
}

// BankTransaction is one imported bank-feed row.
type BankTransaction struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	Date             Date            `json:"date"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"` // negative = money out
	Reconciled       bool            `json:"reconciled"`
	ReconciliationID *string         `json:"reconciliation_id,omitempty"`
}

// CountReconciled returns how many rows are flagged reconciled.
func CountReconciled(txns []BankTransaction) int {
	n := 0
	for _, t := range txns {
		if t.Reconciled {
			n++
		}
	}
	return n
}

// CountUnassigned returns how many rows are not attached to any reconciliation.
func CountUnassigned(txns []BankTransaction) int {
	n := 0
	for _, t := range txns {
		if t.ReconciliationID == nil || *t.ReconciliationID == "" {
			n++
		}
	}
	return n
}
