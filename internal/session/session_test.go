package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/bankdesk/internal/activity"
	"github.com/cleared-dev/bankdesk/internal/bankapi"
	"github.com/cleared-dev/bankdesk/internal/bankapi/bankapitest"
	"github.com/cleared-dev/bankdesk/internal/importer"
	"github.com/cleared-dev/bankdesk/internal/model"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Alert(message string) {
	m.Called(message)
}

type memRecorder struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (r *memRecorder) Record(e activity.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *memRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

func chart() []model.Account {
	num := "1234567890"
	return []model.Account{
		{ID: "chk", Name: "Operating", DetailType: model.DetailChecking, Balance: decimal.NewFromInt(5000), AccountNumber: &num},
		{ID: "ar", Name: "Receivables", DetailType: "Accounts Receivable"},
		{ID: "cc", Name: "Company Card", DetailType: model.DetailCreditCard, Balance: decimal.NewFromFloat(-42.5)},
		{ID: "sav", Name: "Reserve", DetailType: model.DetailSavings},
	}
}

func date(y int, m time.Month, d int) model.Date {
	return model.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

type harness struct {
	ctl       *Controller
	fake      *bankapitest.Server
	notifier  *mockNotifier
	recorder  *memRecorder
	refreshes atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		fake:     bankapitest.New(t),
		notifier: &mockNotifier{},
		recorder: &memRecorder{},
	}
	h.fake.SetBankTransactions("chk",
		model.BankTransaction{ID: "t1", Date: date(2025, 1, 3), Description: "ACME PAYMENT", Amount: decimal.NewFromInt(100)},
		model.BankTransaction{ID: "t2", Date: date(2025, 1, 4), Description: "COFFEE", Amount: decimal.NewFromInt(-40)},
	)

	client, err := bankapi.New(h.fake.URL)
	require.NoError(t, err)

	h.ctl = New(client, Host{
		Accounts:  chart(),
		OnRefresh: func(context.Context) { h.refreshes.Add(1) },
	}, WithNotifier(h.notifier), WithRecorder(h.recorder))
	t.Cleanup(func() { h.notifier.AssertExpectations(t) })
	return h
}

func writeStatement(t *testing.T, name, content string) importer.Statement {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	st, err := importer.StatementFromPath(path)
	require.NoError(t, err)
	return st
}

func TestBankingAccountsKeepOrder(t *testing.T) {
	c := New(&stubAPI{}, Host{Accounts: chart()})
	st := c.State()

	var ids []string
	for _, a := range st.Accounts {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"chk", "cc", "sav"}, ids)
	assert.Nil(t, st.SelectedAccount)
	assert.Equal(t, TabOverview, st.Tab)
}

func TestSelectAccountFetchesEachListOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	assert.Len(t, h.fake.CallsTo(http.MethodGet, bankapitest.RouteBankTransactions), 1)
	assert.Len(t, h.fake.CallsTo(http.MethodGet, bankapitest.RouteReconciliations), 1)

	st := h.ctl.State()
	require.NotNil(t, st.SelectedAccount)
	assert.Equal(t, "Operating", st.SelectedAccount.Name)
	assert.Len(t, st.BankTransactions, 2)

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	txnCalls := h.fake.CallsTo(http.MethodGet, bankapitest.RouteBankTransactions)
	assert.Len(t, txnCalls, 2)
	assert.Len(t, h.fake.CallsTo(http.MethodGet, bankapitest.RouteReconciliations), 2)
	assert.Equal(t, "chk", txnCalls[1].Query.Get("account_id"))
}

func TestSelectUnknownAccount(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.ctl.SelectAccount(context.Background(), "nope"), ErrUnknownAccount)
	assert.ErrorIs(t, h.ctl.SelectAccount(context.Background(), "ar"), ErrUnknownAccount)
	assert.Empty(t, h.fake.Calls())
}

func TestSwitchAccountClearsAccountState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SetPreview(model.ImportPreview{TotalTransactions: 1})

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	_, err := h.ctl.StartReconciliation(ctx, ReconcileForm{StatementDate: "2025-01-31", EndingBalance: "60"})
	require.NoError(t, err)
	require.NoError(t, h.ctl.OpenImport())
	h.ctl.ChooseFile(writeStatement(t, "jan.csv", "x"))
	require.NoError(t, h.ctl.PreviewImport(ctx))

	require.NoError(t, h.ctl.SelectAccount(ctx, "sav"))
	st := h.ctl.State()
	assert.Equal(t, "sav", st.SelectedAccount.ID)
	assert.Nil(t, st.CurrentReconciliation)
	assert.Nil(t, st.Preview)
	assert.Nil(t, st.File)
	assert.False(t, st.ImportOpen)
	assert.Empty(t, st.BankTransactions)
}

func TestSetTab(t *testing.T) {
	c := New(&stubAPI{}, Host{})
	require.NoError(t, c.SetTab(TabFeeds))
	assert.Equal(t, TabFeeds, c.State().Tab)

	assert.ErrorIs(t, c.SetTab("ledger"), ErrUnknownTab)
	assert.Equal(t, TabFeeds, c.State().Tab)
}

func TestPreviewRoutesByExtension(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))

	for _, name := range []string{"statement.csv", "statement.qfx", "statement.OFX"} {
		require.NoError(t, h.ctl.OpenImport())
		h.ctl.ChooseFile(writeStatement(t, name, "data"))
		require.NoError(t, h.ctl.PreviewImport(ctx), name)
		h.ctl.CloseImport()
	}

	csv := h.fake.CallsTo(http.MethodPost, bankapitest.RoutePreviewCSV)
	qfx := h.fake.CallsTo(http.MethodPost, bankapitest.RoutePreviewQFX)
	require.Len(t, csv, 1)
	require.Len(t, qfx, 2)
	assert.Equal(t, "statement.csv", csv[0].FileName)
	assert.Equal(t, "statement.OFX", qfx[1].FileName)
}

func TestPreviewRequiresAccountAndFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.ErrorIs(t, h.ctl.PreviewImport(ctx), ErrNoAccount)
	assert.ErrorIs(t, h.ctl.OpenImport(), ErrNoAccount)

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	h.fake.ResetCalls()
	assert.ErrorIs(t, h.ctl.PreviewImport(ctx), ErrNoFile)
	assert.Empty(t, h.fake.Calls())
}

func TestPreviewFailureAlerts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.Fail(http.MethodPost, bankapitest.RoutePreviewCSV, http.StatusBadRequest, "Unrecognized CSV layout")
	h.notifier.On("Alert", "Error importing file: Unrecognized CSV layout").Once()

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	require.NoError(t, h.ctl.OpenImport())
	h.ctl.ChooseFile(writeStatement(t, "jan.csv", "x"))

	err := h.ctl.PreviewImport(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, bankapi.StatusCode(err))

	st := h.ctl.State()
	assert.Nil(t, st.Preview)
	assert.NotNil(t, st.File)
	assert.False(t, st.Loading)
}

func TestConfirmRequiresPreview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	h.fake.ResetCalls()

	assert.ErrorIs(t, h.ctl.ConfirmImport(ctx), ErrNoPreview)
	assert.Empty(t, h.fake.Calls())
}

func previewRows() model.ImportPreview {
	return model.ImportPreview{
		TotalTransactions: 2,
		PreviewTransactions: []model.PreviewTransaction{
			{Date: date(2025, 1, 10), Description: "GITHUB", Amount: decimal.NewFromInt(-4)},
			{Date: date(2025, 1, 12), Description: "CLIENT WIRE", Amount: decimal.NewFromInt(3500)},
		},
		Errors: []string{"row 3: bad date"},
	}
}

func TestConfirmImportSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SetPreview(previewRows())
	h.notifier.On("Alert", MsgImported).Once()

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	require.NoError(t, h.ctl.OpenImport())
	h.ctl.ChooseFile(writeStatement(t, "jan.csv", "x"))
	require.NoError(t, h.ctl.PreviewImport(ctx))

	st := h.ctl.State()
	require.NotNil(t, st.Preview)
	assert.Equal(t, []string{"row 3: bad date"}, st.Preview.FirstErrors(5))

	require.NoError(t, h.ctl.ConfirmImport(ctx))

	st = h.ctl.State()
	assert.Nil(t, st.Preview)
	assert.Nil(t, st.File)
	assert.False(t, st.ImportOpen)
	assert.False(t, st.Loading)
	assert.Len(t, st.BankTransactions, 4, "bank transactions re-fetched after confirm")
	assert.Equal(t, int32(1), h.refreshes.Load())
	assert.Equal(t, []string{activity.ActionImportConfirmed}, h.recorder.actions())

	confirm := h.fake.CallsTo(http.MethodPost, bankapitest.RouteConfirm)
	require.Len(t, confirm, 1)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(confirm[0].Body, &rows))
	assert.Len(t, rows, 2)
	assert.Equal(t, "GITHUB", rows[0]["description"])
}

func TestConfirmFailureKeepsPreview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SetPreview(previewRows())
	h.fake.Fail(http.MethodPost, bankapitest.RouteConfirm, http.StatusInternalServerError, "database is locked")
	h.notifier.On("Alert", "Error importing transactions: database is locked").Once()

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	require.NoError(t, h.ctl.OpenImport())
	h.ctl.ChooseFile(writeStatement(t, "jan.csv", "x"))
	require.NoError(t, h.ctl.PreviewImport(ctx))

	require.Error(t, h.ctl.ConfirmImport(ctx))
	st := h.ctl.State()
	assert.NotNil(t, st.Preview)
	assert.True(t, st.ImportOpen)
	assert.Zero(t, h.refreshes.Load())

	h.fake.ClearFailures()
	h.notifier.On("Alert", MsgImported).Once()
	require.NoError(t, h.ctl.ConfirmImport(ctx))
	assert.Nil(t, h.ctl.State().Preview)
}

func TestBackAndCancelClearBuffers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SetPreview(previewRows())
	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	require.NoError(t, h.ctl.OpenImport())
	h.ctl.ChooseFile(writeStatement(t, "jan.csv", "x"))
	require.NoError(t, h.ctl.PreviewImport(ctx))

	h.ctl.BackToFile()
	st := h.ctl.State()
	assert.True(t, st.ImportOpen)
	assert.Nil(t, st.Preview)
	assert.Nil(t, st.File)

	h.ctl.ChooseFile(writeStatement(t, "feb.csv", "x"))
	require.NoError(t, h.ctl.PreviewImport(ctx))
	h.ctl.CloseImport()
	st = h.ctl.State()
	assert.False(t, st.ImportOpen)
	assert.Nil(t, st.Preview)
	assert.Nil(t, st.File)
}

func TestStartReconciliation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	require.NoError(t, h.ctl.OpenReconcile())

	rec, err := h.ctl.StartReconciliation(ctx, ReconcileForm{
		StatementDate: "01/31/2025",
		EndingBalance: "1000.25",
		Notes:         " January ",
	})
	require.NoError(t, err)

	st := h.ctl.State()
	require.NotNil(t, st.CurrentReconciliation)
	assert.Equal(t, rec.ID, st.CurrentReconciliation.ID)
	assert.Equal(t, TabReconcile, st.Tab)
	assert.False(t, st.ReconcileOpen)
	require.Len(t, st.Reconciliations, 1, "history re-fetched")
	assert.Equal(t, []string{activity.ActionReconciliationStarted}, h.recorder.actions())

	calls := h.fake.CallsTo(http.MethodPost, bankapitest.RouteReconciliations)
	require.Len(t, calls, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Body, &body))
	assert.Equal(t, "chk", body["account_id"])
	assert.Equal(t, 1000.25, body["statement_ending_balance"])
	assert.Equal(t, "January", body["notes"])
	assert.True(t, strings.HasPrefix(body["statement_date"].(string), "2025-01-31"))
}

func TestStartReconciliationInvalidForm(t *testing.T) {
	tests := []struct {
		name string
		form ReconcileForm
		want string
	}{
		{"missing date", ReconcileForm{EndingBalance: "10"}, "Error starting reconciliation: statement date is required"},
		{"bad date", ReconcileForm{StatementDate: "Jan 31", EndingBalance: "10"}, "Error starting reconciliation: statement date must be YYYY-MM-DD or MM/DD/YYYY"},
		{"missing balance", ReconcileForm{StatementDate: "2025-01-31"}, "Error starting reconciliation: ending balance is required"},
		{"bad balance", ReconcileForm{StatementDate: "2025-01-31", EndingBalance: "ten"}, "Error starting reconciliation: ending balance must be a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.notifier.On("Alert", tt.want).Once()
			require.NoError(t, h.ctl.SelectAccount(context.Background(), "chk"))

			_, err := h.ctl.StartReconciliation(context.Background(), tt.form)
			assert.ErrorIs(t, err, ErrInvalidForm)
			assert.Empty(t, h.fake.CallsTo(http.MethodPost, bankapitest.RouteReconciliations))
			assert.Nil(t, h.ctl.State().CurrentReconciliation)
		})
	}
}

func TestStartReconciliationServerError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.Fail(http.MethodPost, bankapitest.RouteReconciliations, http.StatusConflict, "A reconciliation is already pending")
	h.notifier.On("Alert", "Error starting reconciliation: A reconciliation is already pending").Once()

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	require.NoError(t, h.ctl.OpenReconcile())
	_, err := h.ctl.StartReconciliation(ctx, ReconcileForm{StatementDate: "2025-01-31", EndingBalance: "0"})
	require.Error(t, err)

	st := h.ctl.State()
	assert.True(t, st.ReconcileOpen)
	assert.Nil(t, st.CurrentReconciliation)
	assert.False(t, st.Loading)
}

func TestToggleUsesCurrentReconciliation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))

	require.NoError(t, h.ctl.ToggleReconciled(ctx, "t1", true))
	rec, err := h.ctl.StartReconciliation(ctx, ReconcileForm{StatementDate: "2025-01-31", EndingBalance: "100"})
	require.NoError(t, err)

	require.NoError(t, h.ctl.ToggleReconciled(ctx, "t1", true))
	st := h.ctl.State()
	assert.Equal(t, 1, model.CountReconciled(st.BankTransactions), "re-fetched after toggle")

	require.NoError(t, h.ctl.ToggleReconciled(ctx, "t1", false))

	calls := h.fake.CallsTo(http.MethodPut, bankapitest.RouteToggle)
	require.Len(t, calls, 3)
	assert.False(t, calls[0].Query.Has("reconciliation_id"), "no current reconciliation")
	assert.Equal(t, rec.ID, calls[1].Query.Get("reconciliation_id"))
	assert.False(t, calls[2].Query.Has("reconciliation_id"), "unchecking sends null")

	assert.Equal(t, []string{
		activity.ActionItemUnreconciled,
		activity.ActionReconciliationStarted,
		activity.ActionItemReconciled,
		activity.ActionItemUnreconciled,
	}, h.recorder.actions())
}

func TestToggleFailureDoesNotAlert(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))

	err := h.ctl.ToggleReconciled(ctx, "missing", false)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, bankapi.StatusCode(err))
	h.notifier.AssertNotCalled(t, "Alert", mock.Anything)
}

func TestCompleteReconciliation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.notifier.On("Alert", MsgReconciliationDone).Once()
	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	_, err := h.ctl.StartReconciliation(ctx, ReconcileForm{StatementDate: "2025-01-31", EndingBalance: "60"})
	require.NoError(t, err)
	require.NoError(t, h.ctl.ToggleReconciled(ctx, "t1", true))
	require.NoError(t, h.ctl.ToggleReconciled(ctx, "t2", true))

	txnsBefore := len(h.fake.CallsTo(http.MethodGet, bankapitest.RouteBankTransactions))
	recsBefore := len(h.fake.CallsTo(http.MethodGet, bankapitest.RouteReconciliations))

	require.NoError(t, h.ctl.CompleteReconciliation(ctx))

	st := h.ctl.State()
	assert.Nil(t, st.CurrentReconciliation)
	require.Len(t, st.Reconciliations, 1)
	assert.Equal(t, model.StatusCompleted, st.Reconciliations[0].Status)
	assert.Len(t, h.fake.CallsTo(http.MethodGet, bankapitest.RouteBankTransactions), txnsBefore+1)
	assert.Len(t, h.fake.CallsTo(http.MethodGet, bankapitest.RouteReconciliations), recsBefore+1)
	assert.Equal(t, int32(1), h.refreshes.Load())
}

func TestCompleteFailureKeepsCurrent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.Fail(http.MethodPost, bankapitest.RouteComplete, http.StatusBadRequest, "Difference must be zero")
	h.notifier.On("Alert", "Error completing reconciliation: Difference must be zero").Once()

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	_, err := h.ctl.StartReconciliation(ctx, ReconcileForm{StatementDate: "2025-01-31", EndingBalance: "60"})
	require.NoError(t, err)

	require.Error(t, h.ctl.CompleteReconciliation(ctx))
	assert.NotNil(t, h.ctl.State().CurrentReconciliation)
}

func TestCompleteWithoutActive(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctl.SelectAccount(context.Background(), "chk"))
	assert.ErrorIs(t, h.ctl.CompleteReconciliation(context.Background()), ErrNoActiveReconciliation)
}

func TestResumeReconciliation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SetReconciliations("chk",
		model.Reconciliation{ID: "r-done", StatementDate: date(2024, 12, 31), Status: model.StatusCompleted},
		model.Reconciliation{ID: "r-open", StatementDate: date(2025, 1, 31), Status: model.StatusPending},
	)
	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))

	assert.ErrorIs(t, h.ctl.ResumeReconciliation("r-done"), ErrNotResumable)
	assert.ErrorIs(t, h.ctl.ResumeReconciliation("r-missing"), ErrNotResumable)

	require.NoError(t, h.ctl.ResumeReconciliation("r-open"))
	st := h.ctl.State()
	require.NotNil(t, st.CurrentReconciliation)
	assert.Equal(t, "r-open", st.CurrentReconciliation.ID)
	assert.Equal(t, TabReconcile, st.Tab)
	assert.Len(t, st.PendingReconciliations(), 1)
}

func TestSummary(t *testing.T) {
	rid := "r1"
	var txns []model.Transaction
	for i := 0; i < 7; i++ {
		txns = append(txns, model.Transaction{ID: string(rune('a' + i))})
	}
	st := State{
		Transactions: txns,
		BankTransactions: []model.BankTransaction{
			{ID: "1", Reconciled: true, ReconciliationID: &rid},
			{ID: "2"},
			{ID: "3", ReconciliationID: &rid},
		},
	}

	s := st.Summary()
	assert.Equal(t, 2, s.Unreconciled)
	assert.Equal(t, 1, s.UnmatchedFeeds)
	assert.Equal(t, 1, s.ReconciledItems)
	assert.Len(t, s.Recent, RecentLimit)
	assert.Equal(t, "a", s.Recent[0].ID)
}

func TestSetHostData(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))

	updated := chart()
	updated[0].Balance = decimal.NewFromInt(7000)
	h.ctl.SetHostData(updated, nil)
	assert.Equal(t, "7000", h.ctl.State().SelectedAccount.Balance.String())

	h.ctl.SetHostData(updated[1:], nil)
	st := h.ctl.State()
	assert.Nil(t, st.SelectedAccount)
	assert.Empty(t, st.BankTransactions)
	assert.Len(t, st.Accounts, 2)
}

func TestParseStatementDate(t *testing.T) {
	for _, in := range []string{"2025-01-31", "01/31/2025", "2025-01-31T00:00:00Z"} {
		got, err := ParseStatementDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2025-01-31", got.Format("2006-01-02"))
	}
	_, err := ParseStatementDate("31/01/2025")
	assert.Error(t, err)
}

// stubAPI lets tests control response timing.
type stubAPI struct {
	listBankTxns func(accountID string) ([]model.BankTransaction, error)
	previewFn    func() (*model.ImportPreview, error)
}

func (s *stubAPI) ListBankTransactions(_ context.Context, accountID string) ([]model.BankTransaction, error) {
	if s.listBankTxns == nil {
		return nil, nil
	}
	return s.listBankTxns(accountID)
}

func (s *stubAPI) ListReconciliations(context.Context, string) ([]model.Reconciliation, error) {
	return nil, nil
}

func (s *stubAPI) PreviewImport(_ context.Context, _ importer.Kind, _, _ string, _ io.Reader) (*model.ImportPreview, error) {
	if s.previewFn == nil {
		return &model.ImportPreview{}, nil
	}
	return s.previewFn()
}

func (s *stubAPI) ConfirmImport(context.Context, string, *model.ImportPreview) error {
	return nil
}

func (s *stubAPI) CreateReconciliation(_ context.Context, req model.NewReconciliation) (*model.Reconciliation, error) {
	return &model.Reconciliation{ID: "r1", AccountID: req.AccountID, Status: model.StatusPending}, nil
}

func (s *stubAPI) SetReconciliation(context.Context, string, *string) error {
	return nil
}

func (s *stubAPI) CompleteReconciliation(context.Context, string) error {
	return nil
}

func feedRows(desc string) []model.BankTransaction {
	return []model.BankTransaction{{ID: desc, Description: desc}}
}

func TestSlowEarlierResponseIsDropped(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	api := &stubAPI{listBankTxns: func(string) ([]model.BankTransaction, error) {
		if calls.Add(1) == 1 {
			<-release
			return feedRows("old"), nil
		}
		return feedRows("new"), nil
	}}
	c := New(api, Host{Accounts: chart()})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.SelectAccount(ctx, "chk") }()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.SelectAccount(ctx, "chk"))
	assert.Equal(t, "new", c.State().BankTransactions[0].Description)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "new", c.State().BankTransactions[0].Description)
}

func TestResponseForPreviousAccountIsDropped(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	api := &stubAPI{listBankTxns: func(accountID string) ([]model.BankTransaction, error) {
		if accountID == "chk" {
			close(entered)
			<-release
		}
		return feedRows(accountID), nil
	}}
	c := New(api, Host{Accounts: chart()})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.SelectAccount(ctx, "chk") }()
	<-entered

	require.NoError(t, c.SelectAccount(ctx, "sav"))
	close(release)
	require.NoError(t, <-done)

	st := c.State()
	assert.Equal(t, "sav", st.SelectedAccount.ID)
	require.Len(t, st.BankTransactions, 1)
	assert.Equal(t, "sav", st.BankTransactions[0].Description)
}

func TestLoadingFlagRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	api := &stubAPI{previewFn: func() (*model.ImportPreview, error) {
		close(entered)
		<-release
		return &model.ImportPreview{TotalTransactions: 1}, nil
	}}
	c := New(api, Host{Accounts: chart()})
	ctx := context.Background()
	require.NoError(t, c.SelectAccount(ctx, "chk"))
	require.NoError(t, c.OpenImport())
	c.ChooseFile(writeStatement(t, "jan.csv", "x"))

	done := make(chan error, 1)
	go func() { done <- c.PreviewImport(ctx) }()
	<-entered

	assert.True(t, c.State().Loading)
	assert.ErrorIs(t, c.PreviewImport(ctx), ErrBusy)
	assert.ErrorIs(t, c.ConfirmImport(ctx), ErrBusy)
	_, err := c.StartReconciliation(ctx, ReconcileForm{StatementDate: "2025-01-31", EndingBalance: "1"})
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.CompleteReconciliation(ctx), ErrBusy)
	assert.NoError(t, c.ToggleReconciled(ctx, "t1", false), "toggle ignores the loading flag")

	close(release)
	require.NoError(t, <-done)
	st := c.State()
	assert.False(t, st.Loading)
	require.NotNil(t, st.Preview)
	assert.Equal(t, 1, st.Preview.TotalTransactions)
}

func TestStateSnapshotDoesNotShareImportPreview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SetPreview(previewRows())

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	require.NoError(t, h.ctl.OpenImport())
	h.ctl.ChooseFile(writeStatement(t, "jan.csv", "x"))
	require.NoError(t, h.ctl.PreviewImport(ctx))

	snap := h.ctl.State()
	require.NotNil(t, snap.Preview)
	snap.Preview.TotalTransactions = 999
	snap.Preview.Errors[0] = "changed"
	snap.Preview.PreviewTransactions[0].Description = "changed"

	st := h.ctl.State()
	assert.Equal(t, 2, st.Preview.TotalTransactions)
	assert.Equal(t, []string{"row 3: bad date"}, st.Preview.Errors)
	assert.Equal(t, "GITHUB", st.Preview.PreviewTransactions[0].Description)
}

func TestStartReconciliationAcceptsLongNotes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	notes := strings.Repeat("n", 5000)

	require.NoError(t, h.ctl.SelectAccount(ctx, "chk"))
	rec, err := h.ctl.StartReconciliation(ctx, ReconcileForm{StatementDate: "2025-01-31", EndingBalance: "60", Notes: notes})
	require.NoError(t, err)
	assert.Equal(t, notes, rec.Notes)
}
