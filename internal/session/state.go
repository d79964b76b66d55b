package session

import (
	"github.com/cleared-dev/bankdesk/internal/importer"
	"github.com/cleared-dev/bankdesk/internal/model"
)

// Tab is one of the right-panel views.
type Tab string

const (
	TabOverview  Tab = "overview"
	TabFeeds     Tab = "feeds"
	TabReconcile Tab = "reconcile"
	TabRegister  Tab = "register"
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabOverview, TabFeeds, TabReconcile, TabRegister}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	for _, known := range Tabs {
		if t == known {
			return true
		}
	}
	return false
}

// Title is the tab strip label.
func (t Tab) Title() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabFeeds:
		return "Bank Feeds"
	case TabReconcile:
		return "Reconcile"
	case TabRegister:
		return "Register"
	default:
		return string(t)
	}
}

// RecentLimit is how many ledger transactions the overview lists.
const RecentLimit = 5

// State is a snapshot of the screen.
type State struct {
	// Accounts is the banking subset of the host accounts, in host order.
	Accounts     []model.Account
	Transactions []model.Transaction

	SelectedAccount       *model.Account
	BankTransactions      []model.BankTransaction
	Reconciliations       []model.Reconciliation
	CurrentReconciliation *model.Reconciliation

	Tab           Tab
	ImportOpen    bool
	ReconcileOpen bool
	File          *importer.Statement
	Preview       *model.ImportPreview
	Loading       bool
}

// clone copies pointer fields, including the import preview and its rows, so
// callers cannot reach controller state. The fetched lists are replaced
// wholesale, never mutated in place, so they are shared.
func (s State) clone() State {
	out := s
	if s.SelectedAccount != nil {
		a := *s.SelectedAccount
		out.SelectedAccount = &a
	}
	if s.CurrentReconciliation != nil {
		r := *s.CurrentReconciliation
		out.CurrentReconciliation = &r
	}
	if s.File != nil {
		f := *s.File
		out.File = &f
	}
	out.Preview = s.Preview.Clone()
	return out
}

// HasActiveReconciliation reports whether a reconciliation is current.
func (s State) HasActiveReconciliation() bool {
	return s.CurrentReconciliation != nil
}

// Summary holds the overview aggregates.
type Summary struct {
	Unreconciled    int
	UnmatchedFeeds  int
	ReconciledItems int
	Recent          []model.Transaction
}

// Summary computes the overview aggregates from the fetched lists.
func (s State) Summary() Summary {
	recent := s.Transactions
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	reconciled := model.CountReconciled(s.BankTransactions)
	return Summary{
		Unreconciled:    len(s.BankTransactions) - reconciled,
		UnmatchedFeeds:  model.CountUnassigned(s.BankTransactions),
		ReconciledItems: reconciled,
		Recent:          recent,
	}
}

// PendingReconciliations returns the history entries that can be resumed.
func (s State) PendingReconciliations() []model.Reconciliation {
	var out []model.Reconciliation
	for _, r := range s.Reconciliations {
		if r.Status == model.StatusPending {
			out = append(out, r)
		}
	}
	return out
}
