package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// PreviewTransaction is one row the backend extracted from a statement file.
type PreviewTransaction struct {
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// ImportPreview is the unpersisted result of uploading a statement file.
type ImportPreview struct {
	TotalTransactions   int                  `json:"total_transactions"`
	PreviewTransactions []PreviewTransaction `json:"preview_transactions"`
	Errors              []string             `json:"errors"`

	// raw holds preview_transactions exactly as received so confirm posts
	// back what the backend produced.
	raw json.RawMessage
}

// UnmarshalJSON keeps the raw preview_transactions payload alongside the
// decoded rows.
func (p *ImportPreview) UnmarshalJSON(data []byte) error {
	type plain ImportPreview
	var aux struct {
		plain
		Rows json.RawMessage `json:"preview_transactions"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = ImportPreview(aux.plain)
	p.PreviewTransactions = nil
	p.raw = nil
	if len(aux.Rows) == 0 || string(aux.Rows) == "null" {
		return nil
	}
	if err := json.Unmarshal(aux.Rows, &p.PreviewTransactions); err != nil {
		return fmt.Errorf("decoding preview_transactions: %w", err)
	}
	p.raw = append(json.RawMessage(nil), aux.Rows...)
	return nil
}

// ConfirmPayload returns the body for POST /bank-import/confirm.
func (p *ImportPreview) ConfirmPayload() (json.RawMessage, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	rows := p.PreviewTransactions
	if rows == nil {
		rows = []PreviewTransaction{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encoding preview transactions: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of p.
func (p *ImportPreview) Clone() *ImportPreview {
	if p == nil {
		return nil
	}
	out := *p
	out.PreviewTransactions = append([]PreviewTransaction(nil), p.PreviewTransactions...)
	out.Errors = append([]string(nil), p.Errors...)
	out.raw = append(json.RawMessage(nil), p.raw...)
	return &out
}

// FirstErrors returns at most n row errors.
func (p *ImportPreview) FirstErrors(n int) []string {
	if len(p.Errors) <= n {
		return p.Errors
	}
	return p.Errors[:n]
}
