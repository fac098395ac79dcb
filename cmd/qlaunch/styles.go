package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Brand colors
var (
	brandViolet   = lipgloss.Color("#8B5CF6")
	successGreen  = lipgloss.Color("#00C853")
	warningYellow = lipgloss.Color("#FFC107")
	infoBlue      = lipgloss.Color("#2196F3")
	mutedGray     = lipgloss.Color("#9E9E9E")
)

// Style definitions
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(brandViolet).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(brandViolet).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successGreen).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningYellow).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A78BFA"))

	urlStyle = lipgloss.NewStyle().
			Foreground(infoBlue)
)

// printLogo prints the styled logo with version
func printLogo(w io.Writer, ver string) {
	gradient := lipgloss.NewStyle().Foreground(brandViolet).Render("█▓▒░")
	title := titleStyle.Render("qlaunch")
	versionText := mutedStyle.Render(ver)

	fmt.Fprintf(w, "%s %s %s\n", gradient, title, versionText)
	fmt.Fprintln(w, mutedStyle.Render("Search-first launcher"))
	fmt.Fprintln(w)
}

// printSection prints a styled section header
func printSection(w io.Writer, text string) {
	fmt.Fprintln(w, sectionStyle.Render(text))
}

// printSuccess prints a success message
func printSuccess(w io.Writer, text string) {
	fmt.Fprintln(w, successStyle.Render("✓ "+text))
}

// printWarning prints a warning message
func printWarning(w io.Writer, text string) {
	fmt.Fprintln(w, warningStyle.Render("! "+text))
}

// printMuted prints muted text
func printMuted(w io.Writer, text string) {
	fmt.Fprintln(w, mutedStyle.Render(text))
}

// printPrompt prints an input prompt on same line
func printPrompt(w io.Writer, text string) {
	fmt.Fprint(w, promptStyle.Render(text))
}

// printBullet prints a bullet point
func printBullet(w io.Writer, text string) {
	fmt.Fprintln(w, "• "+text)
}
