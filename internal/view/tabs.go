package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cleared-dev/bankdesk/internal/model"
	"github.com/cleared-dev/bankdesk/internal/session"
)

// Overview renders the aggregate tiles and the recent ledger transactions.
func (r *Renderer) Overview(st session.State, width int) string {
	sum := st.Summary()

	tiles := lipgloss.JoinHorizontal(lipgloss.Top,
		r.s.Card.Render(r.s.Info.Bold(true).Render(fmt.Sprint(sum.Unreconciled))+"\n"+r.s.Info.Render("Unreconciled Transactions")),
		" ",
		r.s.Card.Render(r.s.Warning.Bold(true).Render(fmt.Sprint(sum.UnmatchedFeeds))+"\n"+r.s.Warning.Render("Unmatched Bank Feeds")),
	)

	lines := []string{tiles, "", r.s.Heading.Render("Recent Transactions")}
	if len(sum.Recent) == 0 {
		lines = append(lines, r.s.Subtle.Render("No transactions yet"))
	}
	for _, t := range sum.Recent {
		title := fmt.Sprintf("📄 %s #%s", t.TransactionType, t.ReferenceNumber)
		lines = append(lines,
			spread(title, Money(t.Total), width),
			"   "+r.s.Subtle.Render(t.Date.Short()),
		)
	}
	return strings.Join(lines, "\n")
}

// FeedArrow is ⬇️ for money in and ⬆️ for money out.
func FeedArrow(t model.BankTransaction) string {
	if t.Amount.IsPositive() {
		return "⬇️"
	}
	return "⬆️"
}

func (r *Renderer) reconciledBadge(reconciled bool) string {
	if reconciled {
		return r.s.Positive.Render("Reconciled")
	}
	return r.s.Warning.Render("Unreconciled")
}

// Feeds renders the bank transactions. Checkboxes appear only while a
// reconciliation is current.
func (r *Renderer) Feeds(st session.State, cursor, width int) string {
	lines := []string{spread(r.s.Heading.Render("Bank Transactions"), r.s.Subtle.Render("[i] 📥 Import Transactions"), width)}

	if len(st.BankTransactions) == 0 {
		lines = append(lines,
			"",
			"📊",
			"No bank transactions found",
			r.s.Subtle.Render("Import bank statements to see transactions"),
		)
		return strings.Join(lines, "\n")
	}

	active := st.HasActiveReconciliation()
	for i, t := range st.BankTransactions {
		marker := "  "
		if i == cursor {
			marker = r.s.Cursor.Render("> ")
		}
		right := r.tone(AmountTone(t.Amount)).Render(SignedMoney(t.Amount)) + "  " + r.reconciledBadge(t.Reconciled)
		if active {
			box := "[ ]"
			if t.Reconciled {
				box = "[x]"
			}
			right += " " + box
		}
		lines = append(lines,
			spread(marker+FeedArrow(t)+" "+t.Description, right, width),
			"     "+r.s.Subtle.Render(t.Date.Short()),
		)
	}
	return strings.Join(lines, "\n")
}

// statusBadge colors a reconciliation status.
func (r *Renderer) statusBadge(status model.ReconciliationStatus) string {
	switch status {
	case model.StatusCompleted:
		return r.s.Positive.Render(string(status))
	case model.StatusDiscrepancy:
		return r.s.Negative.Render(string(status))
	default:
		return r.s.Warning.Render(string(status))
	}
}

// Reconcile renders the active session card (or the start card) and the
// reconciliation history. cursor highlights a history row, or -1.
func (r *Renderer) Reconcile(st session.State, cursor, width int) string {
	var card string
	if cur := st.CurrentReconciliation; cur != nil {
		button := "[c] Complete Reconciliation"
		if st.Loading {
			button = "Processing..."
		}
		stats := lipgloss.JoinHorizontal(lipgloss.Top,
			r.s.Card.Render(Money(cur.ReconciledBalance)+"\n"+r.s.Subtle.Render("Reconciled Balance")),
			" ",
			r.s.Card.Render(Money(cur.Difference)+"\n"+r.s.Subtle.Render("Difference")),
			" ",
			r.s.Card.Render(fmt.Sprint(st.Summary().ReconciledItems)+"\n"+r.s.Subtle.Render("Reconciled Items")),
		)
		card = strings.Join([]string{
			spread(r.s.Heading.Render("Active Reconciliation"), r.s.Button.Render(button), width),
			r.s.Info.Render("Statement Date: " + cur.StatementDate.Short()),
			r.s.Info.Render("Statement Balance: " + Money(cur.StatementEndingBalance)),
			stats,
		}, "\n")
	} else {
		card = strings.Join([]string{
			r.s.Heading.Render("Start New Reconciliation"),
			r.s.Info.Render("Reconcile your account with your bank statement to ensure accuracy."),
			r.s.Button.Render("[r] Start Reconciliation"),
		}, "\n")
	}

	lines := []string{card, "", r.s.Heading.Render("Reconciliation History")}
	if len(st.Reconciliations) == 0 {
		lines = append(lines, r.s.Subtle.Render("No previous reconciliations found"))
		return strings.Join(lines, "\n")
	}
	for i, rec := range st.Reconciliations {
		marker := "  "
		if i == cursor {
			marker = r.s.Cursor.Render("> ")
		}
		lines = append(lines, spread(marker+rec.StatementDate.Short(), r.statusBadge(rec.Status), width))
		detail := "  " + r.s.Subtle.Render("Statement Balance: "+Money(rec.StatementEndingBalance))
		if !rec.Difference.IsZero() {
			detail = spread(detail, r.s.Subtle.Render("Difference: "+AbsMoney(rec.Difference)), width)
		}
		lines = append(lines, detail)
	}
	return strings.Join(lines, "\n")
}

// Register renders the account register placeholder table.
func (r *Renderer) Register() string {
	header := r.s.Subtle.Render(fmt.Sprintf("%-12s %-28s %10s %10s %10s %2s", "DATE", "DESCRIPTION", "PAYMENT", "DEPOSIT", "BALANCE", "✓"))
	return strings.Join([]string{
		r.s.Heading.Render("Account Register"),
		header,
		r.s.Subtle.Render("No register entries found"),
	}, "\n")
}
