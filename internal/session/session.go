// Package session holds the banking screen's state machine: account
// selection, two-phase statement import, reconciliation and tabs. It is
// independent of any rendering layer and safe for concurrent use.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/cleared-dev/bankdesk/internal/accounts"
	"github.com/cleared-dev/bankdesk/internal/activity"
	"github.com/cleared-dev/bankdesk/internal/importer"
	"github.com/cleared-dev/bankdesk/internal/model"
)

var (
	ErrNoAccount              = errors.New("no bank account selected")
	ErrUnknownAccount         = errors.New("unknown bank account")
	ErrNoFile                 = errors.New("no statement file chosen")
	ErrNoPreview              = errors.New("no import preview to confirm")
	ErrNoActiveReconciliation = errors.New("no active reconciliation")
	ErrNotResumable           = errors.New("reconciliation is not pending")
	ErrUnknownTab             = errors.New("unknown tab")
	ErrBusy                   = errors.New("another request is in progress")
	ErrInvalidForm            = errors.New("invalid reconciliation form")
)

// Alert messages shown through the Notifier.
const (
	MsgImported           = "Transactions imported successfully!"
	MsgReconciliationDone = "Reconciliation completed successfully!"
	prefixPreviewFailed   = "Error importing file: "
	prefixConfirmFailed   = "Error importing transactions: "
	prefixStartFailed     = "Error starting reconciliation: "
	prefixCompleteFailed  = "Error completing reconciliation: "
)

// API is the subset of the backend client the controller drives.
type API interface {
	ListBankTransactions(ctx context.Context, accountID string) ([]model.BankTransaction, error)
	ListReconciliations(ctx context.Context, accountID string) ([]model.Reconciliation, error)
	PreviewImport(ctx context.Context, kind importer.Kind, accountID, fileName string, content io.Reader) (*model.ImportPreview, error)
	ConfirmImport(ctx context.Context, accountID string, preview *model.ImportPreview) error
	CreateReconciliation(ctx context.Context, req model.NewReconciliation) (*model.Reconciliation, error)
	SetReconciliation(ctx context.Context, bankTxnID string, reconciliationID *string) error
	CompleteReconciliation(ctx context.Context, reconciliationID string) error
}

// Notifier shows a blocking message to the user.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Alert calls f.
func (f NotifierFunc) Alert(message string) { f(message) }

// Recorder receives an entry for every user-initiated action that succeeded.
type Recorder interface {
	Record(e activity.Entry) error
}

// Host carries the inputs owned by the surrounding application.
type Host struct {
	Accounts     []model.Account
	Transactions []model.Transaction
	// OnRefresh is called after server-side balances change.
	OnRefresh func(ctx context.Context)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithNotifier sets where alerts go.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithRecorder sets the activity recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// Controller is the banking screen's state machine.
type Controller struct {
	api       API
	logger    *slog.Logger
	notifier  Notifier
	recorder  Recorder
	onRefresh func(ctx context.Context)

	mu       sync.Mutex
	st       State
	accounts *accounts.Service

	// gen changes whenever the selected account changes. Responses issued
	// under an older generation are dropped.
	gen uint64
	// Per-list request sequence: issued and last applied.
	txnSeq, txnApplied uint64
	recSeq, recApplied uint64
}

// New returns a Controller with no account selected and the overview tab active.
func New(api API, host Host, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		logger:    slog.Default(),
		notifier:  NotifierFunc(func(string) {}),
		onRefresh: host.OnRefresh,
		st:        State{Tab: TabOverview},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.setHostLocked(host.Accounts, host.Transactions)
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.clone()
}

// SetHostData replaces the host-provided accounts and ledger transactions.
// A selected account that is no longer present is deselected.
func (c *Controller) SetHostData(accts []model.Account, txns []model.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setHostLocked(accts, txns)
}

func (c *Controller) setHostLocked(accts []model.Account, txns []model.Transaction) {
	c.accounts = accounts.NewService(accts)
	c.st.Accounts = c.accounts.Banking()
	c.st.Transactions = txns

	if c.st.SelectedAccount == nil {
		return
	}
	if a, ok := c.bankingAccount(c.st.SelectedAccount.ID); ok {
		c.st.SelectedAccount = &a
		return
	}
	c.resetSelectionLocked()
	c.st.SelectedAccount = nil
}

func (c *Controller) bankingAccount(id string) (model.Account, bool) {
	a, ok := c.accounts.Get(id)
	if !ok || !a.DetailType.IsBanking() {
		return model.Account{}, false
	}
	return a, true
}

// resetSelectionLocked drops everything that belongs to the selected account.
func (c *Controller) resetSelectionLocked() {
	c.gen++
	c.st.BankTransactions = nil
	c.st.Reconciliations = nil
	c.st.CurrentReconciliation = nil
	c.st.File = nil
	c.st.Preview = nil
	c.st.ImportOpen = false
	c.st.ReconcileOpen = false
}

// SelectAccount makes id the selected account and fetches its bank
// transactions and reconciliations. Every call fetches, even for the account
// already selected.
func (c *Controller) SelectAccount(ctx context.Context, id string) error {
	c.mu.Lock()
	a, ok := c.bankingAccount(id)
	if !ok {
		c.mu.Unlock()
		return ErrUnknownAccount
	}
	if c.st.SelectedAccount == nil || c.st.SelectedAccount.ID != id {
		c.resetSelectionLocked()
	}
	c.st.SelectedAccount = &a
	c.mu.Unlock()

	c.logger.Debug("account selected", slog.String("account_id", id))
	return c.refreshAll(ctx, id)
}

// SetTab switches the active tab.
func (c *Controller) SetTab(tab Tab) error {
	if !tab.Valid() {
		return ErrUnknownTab
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Tab = tab
	return nil
}

// begin takes the loading flag for a submit action.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.Loading {
		return ErrBusy
	}
	c.st.Loading = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.st.Loading = false
	c.mu.Unlock()
}

func (c *Controller) alert(msg string) {
	c.notifier.Alert(msg)
}

func (c *Controller) record(e activity.Entry) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(e); err != nil {
		c.logger.Warn("recording activity failed",
			slog.String("action", e.Action),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Controller) refreshHost(ctx context.Context) {
	if c.onRefresh != nil {
		c.onRefresh(ctx)
	}
}
