package viz

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Options controls rendering shared by every view.
type Options struct {
	Precision int
	Styled    bool
	Theme     Theme
}

func (o Options) withDefaults() Options {
	if o.Precision < 0 {
		o.Precision = 6
	}
	if o.Theme.Name == "" {
		o.Theme = ThemeMinimal
	}
	return o
}

// Styles is the set of lipgloss styles derived from a theme. The zero
// Styles renders text unchanged.
type Styles struct {
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Absent  lipgloss.Style
	Border  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Done    lipgloss.Style
	Failed  lipgloss.Style
	KeyHint lipgloss.Style
}

func plainStyles() Styles {
	s := lipgloss.NewStyle()
	pad := s.Padding(0, 1)
	return Styles{Header: pad, Cell: pad, Absent: pad, Border: s, Label: s.Width(18), Value: s, Done: s, Failed: s, KeyHint: s}
}

// NewStyles builds styles for theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Foreground(t.Text).Padding(0, 1),
		Absent:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true).Padding(0, 1),
		Border:  lipgloss.NewStyle().Foreground(t.Muted),
		Label:   lipgloss.NewStyle().Foreground(t.Muted).Width(18),
		Value:   lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		Done:    lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Failed:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		KeyHint: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
	}
}

func (o Options) styles() Styles {
	if !o.Styled {
		return plainStyles()
	}
	return NewStyles(o.Theme)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
