package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

func okLabel(s string) string   { return okStyle.Render(s) }
func warnLabel(s string) string { return warnStyle.Render(s) }
func errLabel(s string) string  { return errStyle.Render(s) }

func printSection(title string, lines []string) {
	fmt.Println(title)
	if len(lines) == 0 {
		fmt.Println(dimStyle.Render("  (none)"))
		return
	}
	for _, line := range lines {
		fmt.Printf("  %s\n", line)
	}
}

// printNames lists affected files under --verbose.
func printNames(verbose bool, label string, names []string) {
	if !verbose || len(names) == 0 {
		return
	}
	printSection(label+":", names)
}
