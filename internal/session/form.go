package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// statementDateLayouts are accepted for the statement date field.
var statementDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
}

// ReconcileForm is the user input for starting a reconciliation.
type ReconcileForm struct {
	StatementDate string `validate:"required,statement_date"`
	EndingBalance string `validate:"required,numeric"`
	Notes         string
}

// parsedForm is a validated ReconcileForm.
type parsedForm struct {
	date    time.Time
	balance float64
	notes   string
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("statement_date", func(fl validator.FieldLevel) bool {
		_, err := ParseStatementDate(fl.Field().String())
		return err == nil
	})
	return v
}

// ParseStatementDate parses a statement date in any accepted layout.
func ParseStatementDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("statement date %q must be YYYY-MM-DD or MM/DD/YYYY", s)
}

func (f ReconcileForm) parse() (parsedForm, error) {
	f.StatementDate = strings.TrimSpace(f.StatementDate)
	f.EndingBalance = strings.TrimSpace(f.EndingBalance)
	f.Notes = strings.TrimSpace(f.Notes)

	if err := formValidator.Struct(f); err != nil {
		return parsedForm{}, fmt.Errorf("%w: %s", ErrInvalidForm, describeValidation(err))
	}

	date, err := ParseStatementDate(f.StatementDate)
	if err != nil {
		return parsedForm{}, fmt.Errorf("%w: %s", ErrInvalidForm, err)
	}
	balance, err := strconv.ParseFloat(f.EndingBalance, 64)
	if err != nil {
		return parsedForm{}, fmt.Errorf("%w: ending balance %q is not a number", ErrInvalidForm, f.EndingBalance)
	}
	return parsedForm{date: date, balance: balance, notes: f.Notes}, nil
}

var fieldLabels = map[string]string{
	"StatementDate": "statement date",
	"EndingBalance": "ending balance",
}

// describeValidation renders the first validation failure as a sentence.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	label := fieldLabels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "numeric":
		return label + " must be a number"
	case "statement_date":
		return label + " must be YYYY-MM-DD or MM/DD/YYYY"
	default:
		return label + " is invalid"
	}
}
