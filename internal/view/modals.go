package view

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/bankdesk/internal/model"
	"github.com/cleared-dev/bankdesk/internal/session"
)

// MaxPreviewErrors is how many row errors the preview shows.
const MaxPreviewErrors = 5

// PreviewSummary renders the preview count and the first row errors.
func (r *Renderer) PreviewSummary(p *model.ImportPreview) string {
	lines := []string{
		r.s.Heading.Render("Import Preview"),
		r.s.Info.Render(fmt.Sprintf("Found %d transactions", p.TotalTransactions)),
	}
	if errs := p.FirstErrors(MaxPreviewErrors); len(errs) > 0 {
		lines = append(lines, r.s.Negative.Bold(true).Render("Errors:"))
		for _, e := range errs {
			lines = append(lines, r.s.Negative.Render("• "+e))
		}
	}
	return strings.Join(lines, "\n")
}

// PreviewTable renders the previewed rows.
func (r *Renderer) PreviewTable(p *model.ImportPreview, width int) string {
	lines := []string{r.s.Subtle.Render(spread(fmt.Sprintf("%-12s %s", "Date", "Description"), "Amount", width))}
	for _, t := range p.PreviewTransactions {
		left := fmt.Sprintf("%-12s %s", t.Date.Short(), t.Description)
		lines = append(lines, spread(left, r.tone(AmountTone(t.Amount)).Render(AbsMoney(t.Amount)), width))
	}
	return strings.Join(lines, "\n")
}

// ImportModal renders the import dialog. fileInput is the rendered path input
// shown before a preview exists.
func (r *Renderer) ImportModal(st session.State, fileInput string, width int) string {
	lines := []string{r.s.Heading.Render("Import Bank Transactions"), ""}

	if st.Preview == nil {
		preview := "[enter] Preview Import"
		if st.Loading {
			preview = "Processing..."
		}
		lines = append(lines,
			"Select Bank Statement File",
			fileInput,
			r.s.Subtle.Render("Supported formats: CSV, QFX, OFX"),
		)
		if st.File != nil {
			lines = append(lines, r.s.Subtle.Render(fmt.Sprintf("Selected: %s (%d bytes)", st.File.Name, st.File.Size)))
		}
		lines = append(lines, "", r.s.Button.Render("[esc] Cancel   "+preview))
		return r.s.Modal.Render(strings.Join(lines, "\n"))
	}

	confirm := "[y] Confirm Import"
	if st.Loading {
		confirm = "Importing..."
	}
	lines = append(lines,
		r.PreviewSummary(st.Preview),
		"",
		r.PreviewTable(st.Preview, width),
		"",
		r.s.Button.Render("[b] Back   [esc] Cancel   "+confirm),
	)
	return r.s.Modal.Render(strings.Join(lines, "\n"))
}

// ReconcileModal renders the start-reconciliation dialog around the three
// rendered inputs.
func (r *Renderer) ReconcileModal(dateInput, balanceInput, notesInput string, loading bool) string {
	submit := "[enter] Start Reconciliation"
	if loading {
		submit = "Starting..."
	}
	return r.s.Modal.Render(strings.Join([]string{
		r.s.Heading.Render("Start Bank Reconciliation"),
		"",
		"Statement Ending Date *",
		dateInput,
		"Statement Ending Balance *",
		balanceInput,
		"Notes",
		notesInput,
		"",
		r.s.Button.Render("[esc] Cancel   " + submit),
	}, "\n"))
}

// Alert renders a blocking message.
func (r *Renderer) Alert(msg string) string {
	return r.s.Modal.Render(msg + "\n\n" + r.s.Subtle.Render("press any key"))
}
