// Package ui renders terminal output for jsyml commands.
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Init picks the colour profile. Colour is disabled when noColor is set or
// out is not a terminal; otherwise the environment decides (NO_COLOR,
// CLICOLOR_FORCE, TERM).
func Init(noColor bool, out *os.File) {
	if noColor || out == nil || !term.IsTerminal(int(out.Fd())) {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// RenderPass renders a success marker or message.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderFail renders an error marker or message.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderWarn renders a warning.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderAccent renders headings.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderMuted renders secondary details such as paths.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// IsInteractive reports whether both stdin and stdout are terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// ConfirmPrune asks whether n source files may be deleted after conversion.
func ConfirmPrune(n int) (bool, error) {
	confirmed := false

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %d source file(s) after conversion?", n)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}
