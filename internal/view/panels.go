package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cleared-dev/bankdesk/internal/model"
	"github.com/cleared-dev/bankdesk/internal/session"
)

// AccountIcon returns the glyph shown for a banking account.
func AccountIcon(d model.DetailType) string {
	switch d {
	case model.DetailChecking:
		return "🏦"
	case model.DetailSavings:
		return "💰"
	default:
		return "💳"
	}
}

// LeftTitle is the account panel title.
func LeftTitle(st session.State) string {
	return fmt.Sprintf("Bank Accounts (%d)", len(st.Accounts))
}

// RightTitle is the operations panel title.
func RightTitle(st session.State) string {
	if st.SelectedAccount == nil {
		return "Banking Operations"
	}
	return st.SelectedAccount.Name
}

// AccountRow renders one account in the left panel.
func (r *Renderer) AccountRow(a model.Account, selected, highlighted bool, width int) string {
	name := a.Name
	if selected {
		name = r.s.Selected.Render(name)
	}
	marker := "  "
	if highlighted {
		marker = r.s.Cursor.Render("> ")
	}

	lines := []string{
		spread(marker+AccountIcon(a.DetailType)+" "+name, r.tone(BalanceTone(a.Balance)).Render(AbsMoney(a.Balance)), width),
		spread("     "+r.s.Subtle.Render(string(a.DetailType)), r.s.Subtle.Render("Current Balance"), width),
	}
	if n := a.MaskedNumber(); n != "" {
		lines = append(lines, "     "+r.s.Subtle.Render(n))
	}
	return strings.Join(lines, "\n")
}

// AccountList renders the left panel body. cursor is the highlighted row, or -1.
func (r *Renderer) AccountList(st session.State, cursor, width int) string {
	if len(st.Accounts) == 0 {
		return lipgloss.JoinVertical(lipgloss.Center,
			"🏦",
			"No bank accounts found",
			r.s.Subtle.Render("Create bank accounts to start banking operations"),
		)
	}

	rows := make([]string, 0, len(st.Accounts))
	for i, a := range st.Accounts {
		selected := st.SelectedAccount != nil && st.SelectedAccount.ID == a.ID
		rows = append(rows, r.AccountRow(a, selected, i == cursor, width))
	}
	return strings.Join(rows, "\n\n")
}

// Header renders the selected account's name, type, number and balance.
func (r *Renderer) Header(a model.Account, width int) string {
	left := []string{r.s.Heading.Render(a.Name), r.s.Subtle.Render(string(a.DetailType))}
	if n := a.MaskedNumber(); n != "" {
		left = append(left, r.s.Subtle.Render("Account: "+n))
	}
	balance := r.tone(BalanceTone(a.Balance)).Bold(true).Render(AbsMoney(a.Balance))

	lines := []string{
		spread(left[0], balance, width),
		spread(left[1], r.s.Subtle.Render("Current Balance"), width),
	}
	lines = append(lines, left[2:]...)
	return strings.Join(lines, "\n")
}

// TabStrip renders the tab names with the active one highlighted.
func (r *Renderer) TabStrip(active session.Tab) string {
	parts := make([]string, 0, len(session.Tabs))
	for i, t := range session.Tabs {
		label := fmt.Sprintf("%d %s", i+1, t.Title())
		if t == active {
			parts = append(parts, r.s.TabActive.Render(label))
		} else {
			parts = append(parts, r.s.TabInactive.Render(label))
		}
	}
	return strings.Join(parts, "   ")
}

// Placeholder is shown when no account is selected.
func (r *Renderer) Placeholder() string {
	return lipgloss.JoinVertical(lipgloss.Center,
		"🏦",
		r.s.Heading.Render("Select a bank account"),
		r.s.Subtle.Render("Choose an account to view banking details and operations"),
	)
}

// RightPanel renders the header, tab strip and active tab body.
// cursor is the highlighted row of the active tab, or -1.
func (r *Renderer) RightPanel(st session.State, cursor, width int) string {
	if st.SelectedAccount == nil {
		return r.Placeholder()
	}

	var body string
	switch st.Tab {
	case session.TabFeeds:
		body = r.Feeds(st, cursor, width)
	case session.TabReconcile:
		body = r.Reconcile(st, cursor, width)
	case session.TabRegister:
		body = r.Register()
	default:
		body = r.Overview(st, width)
	}

	rule := r.s.Subtle.Render(strings.Repeat("─", max(width, 10)))
	return strings.Join([]string{
		r.Header(*st.SelectedAccount, width),
		"",
		r.TabStrip(st.Tab),
		rule,
		body,
	}, "\n")
}
