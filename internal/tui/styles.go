package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Launcher palette, light and dark terminal variants
var (
	colorAccent   = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"}
	colorBrand    = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#67E8F9"}
	colorMatch    = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FCE566"}
	colorText     = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F7F1FF"}
	colorDim      = lipgloss.AdaptiveColor{Light: "#737373", Dark: "#8A8A8A"}
	colorRowBg    = lipgloss.AdaptiveColor{Light: "#EDE9FE", Dark: "#2E2A3F"}
	colorBusy     = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#7BD88F"}
	colorFailure  = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#FC618D"}
	markGradient  = []string{"#6D28D9", "#814AEC", "#6883F3", "#22D3EE"}
	markBlockRune = []string{"█", "▓", "▒", "░"}
)

// Styles are the rendered pieces of the search box
type Styles struct {
	Mark string // Violet to cyan block gradient shown before the title

	Title        lipgloss.Style
	Version      lipgloss.Style
	Prompt       lipgloss.Style
	Normal       lipgloss.Style
	Selected     lipgloss.Style
	Highlight    lipgloss.Style
	Snippet      lipgloss.Style
	Kind         lipgloss.Style
	Count        lipgloss.Style
	CountActive  lipgloss.Style
	Cursor       lipgloss.Style
	StatusActive lipgloss.Style
	StatusError  lipgloss.Style
	StatusIdle   lipgloss.Style
	Help         lipgloss.Style
}

// NewStyles builds the styles from the palette
func NewStyles() Styles {
	dim := lipgloss.NewStyle().Foreground(colorDim)
	accent := lipgloss.NewStyle().Foreground(colorAccent)
	match := lipgloss.NewStyle().Foreground(colorMatch).Bold(true)

	return Styles{
		Mark:         renderMark(),
		Title:        lipgloss.NewStyle().Foreground(colorBrand).Bold(true),
		Version:      accent.Faint(true),
		Prompt:       accent,
		Normal:       lipgloss.NewStyle().Foreground(colorText),
		Selected:     lipgloss.NewStyle().Foreground(colorText).Background(colorRowBg),
		Highlight:    match,
		Snippet:      dim.Italic(true),
		Kind:         lipgloss.NewStyle().Foreground(colorBrand).Faint(true),
		Count:        dim,
		CountActive:  match,
		Cursor:       accent.Bold(true),
		StatusActive: lipgloss.NewStyle().Foreground(colorBusy),
		StatusError:  lipgloss.NewStyle().Foreground(colorFailure),
		StatusIdle:   dim,
		Help:         dim,
	}
}

func renderMark() string {
	var b strings.Builder
	for i, block := range markBlockRune {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(markGradient[i])).Render(block))
	}
	return b.String()
}
