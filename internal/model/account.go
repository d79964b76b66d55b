package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DetailType is the backend's fine-grained account classification.
type DetailType string

// Banking detail types. Other detail types exist on the backend but are not
// shown on the banking screen.
const (
	DetailChecking   DetailType = "Checking"
	DetailSavings    DetailType = "Savings"
	DetailCreditCard DetailType = "Credit Card"
)

// IsBanking reports whether accounts of this detail type hold bank feeds.
func (d DetailType) IsBanking() bool {
	switch d {
	case DetailChecking, DetailSavings, DetailCreditCard:
		return true
	default:
		return false
	}
}

// Account is a chart-of-accounts entry as returned by GET /accounts.
type Account struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	AccountType   string          `json:"account_type,omitempty"`
	DetailType    DetailType      `json:"detail_type"`
	Balance       decimal.Decimal `json:"balance"`
	AccountNumber *string         `json:"account_number,omitempty"`
}

// MaskedNumber returns "***1234" for accounts with a number, or "".
func (a Account) MaskedNumber() string {
	if a.AccountNumber == nil {
		return ""
	}
	n := strings.TrimSpace(*a.AccountNumber)
	if n == "" {
		return ""
	}
	if len(n) > 4 {
		n = n[len(n)-4:]
	}
	return "***" + n
}
