package display

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/polnio/unipac-features/pkg/core"
)

var backendColors = map[core.ID]lipgloss.Color{
	core.Pacman:  lipgloss.Color("4"),
	core.AUR:     lipgloss.Color("1"),
	core.Flatpak: lipgloss.Color("2"),
	core.Snap:    lipgloss.Color("3"),
	core.Cargo:   lipgloss.Color("208"),
	core.Nix:     lipgloss.Color("6"),
}

var (
	finishedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	abortedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Style returns the label style of a backend
func Style(id core.ID) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(backendColors[id]).Bold(true)
}

// Label renders a backend name, styled when styled is true
func Label(id core.ID, styled bool) string {
	if !styled {
		return id.String()
	}
	return Style(id).Render(id.String())
}

type fder interface {
	Fd() uintptr
}

// IsTTY reports whether w is a terminal. Writers without a file descriptor,
// such as *bytes.Buffer, are not.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Width returns the column count of terminal w, or 0 when unknown
func Width(w io.Writer) int {
	if f, ok := w.(fder); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
			return cols
		}
	}
	return 0
}
