package view

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Tone is the color class of an amount.
type Tone int

const (
	ToneNeutral Tone = iota
	TonePositive
	ToneNegative
)

func (t Tone) String() string {
	switch t {
	case TonePositive:
		return "positive"
	case ToneNegative:
		return "negative"
	default:
		return "neutral"
	}
}

var printer = message.NewPrinter(language.English)

// FormatNumber renders d with thousands separators and two decimals.
func FormatNumber(d decimal.Decimal) string {
	return printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// AbsMoney renders |d| as "$1,234.50".
func AbsMoney(d decimal.Decimal) string {
	return "$" + FormatNumber(d.Abs())
}

// Money renders d as "$1,234.50" or "-$1,234.50".
func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + AbsMoney(d)
	}
	return AbsMoney(d)
}

// SignedMoney renders feed amounts: "+$12.00" for money in, "$12.00" otherwise.
func SignedMoney(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + AbsMoney(d)
	}
	return AbsMoney(d)
}

// BalanceTone is positive for zero and up, negative below zero.
func BalanceTone(d decimal.Decimal) Tone {
	if d.IsNegative() {
		return ToneNegative
	}
	return TonePositive
}

// AmountTone is positive only for money in.
func AmountTone(d decimal.Decimal) Tone {
	if d.IsPositive() {
		return TonePositive
	}
	return ToneNegative
}
