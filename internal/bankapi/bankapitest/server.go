// Package bankapitest provides an in-memory fake of the bookkeeping backend's
// banking endpoints for tests.
package bankapitest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bankdesk/internal/model"
)

// Route patterns, as registered on the gin engine.
const (
	RouteAccounts         = "/api/accounts"
	RouteTransactions     = "/api/transactions"
	RouteBankTransactions = "/api/bank-transactions"
	RouteReconciliations  = "/api/reconciliations"
	RoutePreviewCSV       = "/api/bank-import/csv/:account_id"
	RoutePreviewQFX       = "/api/bank-import/qfx/:account_id"
	RouteConfirm          = "/api/bank-import/confirm/:account_id"
	RouteToggle           = "/api/bank-transactions/:id/reconcile"
	RouteComplete         = "/api/reconciliations/:id/complete"
)

// Call is one request observed by the fake.
type Call struct {
	Method   string
	Route    string
	Path     string
	Query    url.Values
	Body     []byte
	FileName string
	Status   int
}

type failure struct {
	status int
	detail string
}

// Server is a running fake backend. Its URL is the BACKEND_URL (no /api suffix).
type Server struct {
	*httptest.Server

	mu              sync.Mutex
	accounts        []model.Account
	transactions    []model.Transaction
	bankTxns        map[string][]model.BankTransaction
	reconciliations map[string][]model.Reconciliation
	preview         *model.ImportPreview
	failures        map[string]failure
	calls           []Call
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		bankTxns:        make(map[string][]model.BankTransaction),
		reconciliations: make(map[string][]model.Reconciliation),
		failures:        make(map[string]failure),
	}

	r := gin.New()
	r.Use(s.record, s.injectFailures)
	r.GET(RouteAccounts, s.listAccounts)
	r.GET(RouteTransactions, s.listTransactions)
	r.GET(RouteBankTransactions, s.listBankTransactions)
	r.GET(RouteReconciliations, s.listReconciliations)
	r.POST(RoutePreviewCSV, s.previewImport)
	r.POST(RoutePreviewQFX, s.previewImport)
	r.POST(RouteConfirm, s.confirmImport)
	r.POST(RouteReconciliations, s.createReconciliation)
	r.PUT(RouteToggle, s.toggleReconciled)
	r.POST(RouteComplete, s.completeReconciliation)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SetAccounts replaces the chart of accounts.
func (s *Server) SetAccounts(accounts ...model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = accounts
}

// SetTransactions replaces the ledger transactions.
func (s *Server) SetTransactions(txns ...model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = txns
}

// SetBankTransactions replaces the feed rows of an account.
func (s *Server) SetBankTransactions(accountID string, txns ...model.BankTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range txns {
		txns[i].AccountID = accountID
	}
	s.bankTxns[accountID] = txns
}

// SetReconciliations replaces the reconciliation history of an account.
func (s *Server) SetReconciliations(accountID string, recs ...model.Reconciliation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range recs {
		recs[i].AccountID = accountID
	}
	s.reconciliations[accountID] = recs
}

// SetPreview sets the response of both preview endpoints.
func (s *Server) SetPreview(p model.ImportPreview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = &p
}

// Fail makes every request matching method and route answer with status and
// a {"detail": detail} body until ClearFailures is called.
func (s *Server) Fail(method, route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+route] = failure{status: status, detail: detail}
}

// ClearFailures removes every injected failure.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

// Calls returns every request seen so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the requests that matched method and route.
func (s *Server) CallsTo(method, route string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Route == route {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded requests.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// BankTransactions returns the stored feed rows of an account.
func (s *Server) BankTransactions(accountID string) []model.BankTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.BankTransaction(nil), s.bankTxns[accountID]...)
}

// Reconciliations returns the stored history of an account.
func (s *Server) Reconciliations(accountID string) []model.Reconciliation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Reconciliation(nil), s.reconciliations[accountID]...)
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}
	c.Next()

	call := Call{
		Method: c.Request.Method,
		Route:  c.FullPath(),
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
		Body:   body,
		Status: c.Writer.Status(),
	}
	if name, ok := c.Get("file_name"); ok {
		call.FileName = name.(string)
	}
	if content, ok := c.Get("file_content"); ok {
		call.Body = content.([]byte)
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *Server) injectFailures(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.failures[c.Request.Method+" "+c.FullPath()]
	s.mu.Unlock()
	if ok {
		c.AbortWithStatusJSON(f.status, gin.H{"detail": f.detail})
		return
	}
	c.Next()
}

func (s *Server) listAccounts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, append([]model.Account{}, s.accounts...))
}

func (s *Server) listTransactions(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, append([]model.Transaction{}, s.transactions...))
}

func (s *Server) listBankTransactions(c *gin.Context) {
	accountID := c.Query("account_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, append([]model.BankTransaction{}, s.bankTxns[accountID]...))
}

func (s *Server) listReconciliations(c *gin.Context) {
	accountID := c.Query("account_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, append([]model.Reconciliation{}, s.reconciliations[accountID]...))
}

func (s *Server) previewImport(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No file uploaded"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	defer f.Close()
	content, _ := io.ReadAll(f)
	c.Set("file_name", fh.Filename)
	c.Set("file_content", content)

	s.mu.Lock()
	defer s.mu.Unlock()
	preview := model.ImportPreview{PreviewTransactions: []model.PreviewTransaction{}, Errors: []string{}}
	if s.preview != nil {
		preview = *s.preview
	}
	c.JSON(http.StatusOK, preview)
}

func (s *Server) confirmImport(c *gin.Context) {
	accountID := c.Param("account_id")
	var rows []model.PreviewTransaction
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.bankTxns[accountID] = append(s.bankTxns[accountID], model.BankTransaction{
			ID:          uuid.NewString(),
			AccountID:   accountID,
			Date:        row.Date,
			Description: row.Description,
			Amount:      row.Amount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Imported %d transactions", len(rows))})
}

type createReconciliationRequest struct {
	AccountID              string          `json:"account_id"`
	StatementDate          model.Date      `json:"statement_date"`
	StatementEndingBalance decimal.Decimal `json:"statement_ending_balance"`
	Notes                  string          `json:"notes"`
}

func (s *Server) createReconciliation(c *gin.Context) {
	var req createReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	rec := model.Reconciliation{
		ID:                     uuid.NewString(),
		AccountID:              req.AccountID,
		StatementDate:          req.StatementDate,
		StatementEndingBalance: req.StatementEndingBalance,
		ReconciledBalance:      decimal.Zero,
		Difference:             req.StatementEndingBalance,
		Status:                 model.StatusPending,
		Notes:                  req.Notes,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconciliations[req.AccountID] = append(s.reconciliations[req.AccountID], rec)
	c.JSON(http.StatusOK, rec)
}

func (s *Server) toggleReconciled(c *gin.Context) {
	id := c.Param("id")
	rid, attach := c.GetQuery("reconciliation_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for accountID, txns := range s.bankTxns {
		for i := range txns {
			if txns[i].ID != id {
				continue
			}
			prev := txns[i].ReconciliationID
			if attach && rid != "" {
				txns[i].Reconciled = true
				txns[i].ReconciliationID = &rid
				s.recompute(accountID, rid)
			} else {
				txns[i].Reconciled = false
				txns[i].ReconciliationID = nil
			}
			if prev != nil {
				s.recompute(accountID, *prev)
			}
			c.JSON(http.StatusOK, gin.H{"message": "updated"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Bank transaction not found"})
}

// recompute refreshes the reconciled balance and difference of one session.
func (s *Server) recompute(accountID, reconciliationID string) {
	recs := s.reconciliations[accountID]
	for i := range recs {
		if recs[i].ID != reconciliationID {
			continue
		}
		sum := decimal.Zero
		for _, t := range s.bankTxns[accountID] {
			if t.ReconciliationID != nil && *t.ReconciliationID == reconciliationID {
				sum = sum.Add(t.Amount)
			}
		}
		recs[i].ReconciledBalance = sum
		recs[i].Difference = recs[i].StatementEndingBalance.Sub(sum)
	}
}

func (s *Server) completeReconciliation(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, recs := range s.reconciliations {
		for i := range recs {
			if recs[i].ID != id {
				continue
			}
			if recs[i].Difference.IsZero() {
				recs[i].Status = model.StatusCompleted
			} else {
				recs[i].Status = model.StatusDiscrepancy
			}
			c.JSON(http.StatusOK, gin.H{"message": "Reconciliation completed"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Reconciliation not found"})
}
