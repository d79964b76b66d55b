// Package view renders the banking screen as terminal text. Every function is
// pure: it takes a session snapshot and returns a string.
package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorBlue   = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#CA8A04", Dark: "#FACC15"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorBorder = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}
)

// Styles groups the lipgloss styles used by the renderers.
type Styles struct {
	PanelTitle  lipgloss.Style
	Panel       lipgloss.Style
	FocusPanel  lipgloss.Style
	Heading     lipgloss.Style
	Subtle      lipgloss.Style
	Positive    lipgloss.Style
	Negative    lipgloss.Style
	Warning     lipgloss.Style
	Info        lipgloss.Style
	Selected    lipgloss.Style
	Cursor      lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Card        lipgloss.Style
	Modal       lipgloss.Style
	Button      lipgloss.Style
}

// DefaultStyles returns the screen's palette.
func DefaultStyles() Styles {
	return Styles{
		PanelTitle:  lipgloss.NewStyle().Bold(true).Foreground(colorBlue),
		Panel:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1),
		FocusPanel:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBlue).Padding(0, 1),
		Heading:     lipgloss.NewStyle().Bold(true),
		Subtle:      lipgloss.NewStyle().Foreground(colorGray),
		Positive:    lipgloss.NewStyle().Foreground(colorGreen),
		Negative:    lipgloss.NewStyle().Foreground(colorRed),
		Warning:     lipgloss.NewStyle().Foreground(colorYellow),
		Info:        lipgloss.NewStyle().Foreground(colorBlue),
		Selected:    lipgloss.NewStyle().Bold(true).Foreground(colorBlue),
		Cursor:      lipgloss.NewStyle().Foreground(colorBlue),
		TabActive:   lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorBlue),
		TabInactive: lipgloss.NewStyle().Foreground(colorGray),
		Card:        lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(colorBorder).Padding(0, 1),
		Modal:       lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(colorBlue).Padding(1, 2),
		Button:      lipgloss.NewStyle().Bold(true),
	}
}

// Renderer renders screen parts with a fixed set of styles.
type Renderer struct {
	s Styles
}

// New returns a Renderer using DefaultStyles.
func New() *Renderer {
	return &Renderer{s: DefaultStyles()}
}

// NewWithStyles returns a Renderer using s.
func NewWithStyles(s Styles) *Renderer {
	return &Renderer{s: s}
}

// Styles returns the renderer's styles.
func (r *Renderer) Styles() Styles {
	return r.s
}

func (r *Renderer) tone(t Tone) lipgloss.Style {
	switch t {
	case TonePositive:
		return r.s.Positive
	case ToneNegative:
		return r.s.Negative
	default:
		return lipgloss.NewStyle()
	}
}

// spread places right at the end of a line of the given width.
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}
