package report

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorMode selects whether the report is colorized.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Valid reports whether m is a known mode.
func (m ColorMode) Valid() bool {
	switch m {
	case ColorAuto, ColorAlways, ColorNever:
		return true
	}
	return false
}

// Styles holds the lipgloss styles for each report element.
type Styles struct {
	Banner   lipgloss.Style
	Section  lipgloss.Style
	Table    lipgloss.Style
	Path     lipgloss.Style
	Location lipgloss.Style
	Arrow    lipgloss.Style
}

// NewStyles builds the report styles bound to renderer r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Banner:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Section:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		Table:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Path:     r.NewStyle().Foreground(lipgloss.Color("226")),
		Location: r.NewStyle().Foreground(lipgloss.Color("241")),
		Arrow:    r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// useColor resolves mode against the writer.
func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}
