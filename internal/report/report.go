package report

// report.go — human rendering of compiler diagnostics.
//
// One headline per topology, then one line per issue, errors before
// warnings. Hints follow their issue on an indented line. With styled off
// the output carries no escape sequences and is safe for pipes and logs.

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"topogen/internal/diag"
)

const (
	SymbolOK      = "✅"
	SymbolInfo    = "ℹ️"
	SymbolWarning = "⚠️"
	SymbolError   = "❌"
)

type styles struct {
	title   lipgloss.Style
	err     lipgloss.Style
	warning lipgloss.Style
	path    lipgloss.Style
	hint    lipgloss.Style
}

var (
	colored = styles{
		title:   lipgloss.NewStyle().Bold(true),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")),
		path:    lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
	plain = styles{
		title:   lipgloss.NewStyle(),
		err:     lipgloss.NewStyle(),
		warning: lipgloss.NewStyle(),
		path:    lipgloss.NewStyle(),
		hint:    lipgloss.NewStyle(),
	}
)

// Item is one rendered topology.
type Item struct {
	Name   string
	Report diag.Report
	// Err is a failure that carries no issues, such as a parse error.
	Err error
}

// Render writes the report for one topology.
func Render(w io.Writer, name string, rep diag.Report, styled bool) error {
	return RenderItems(w, []Item{{Name: name, Report: rep}}, styled)
}

// RenderItems writes several reports followed, when there is more than one,
// by a summary line.
func RenderItems(w io.Writer, items []Item, styled bool) error {
	st := plain
	if styled {
		st = colored
	}
	var b strings.Builder
	failed := 0
	for _, it := range items {
		if !it.Report.OK() || it.Err != nil {
			failed++
		}
		writeItem(&b, st, it)
	}
	if len(items) > 1 {
		line := fmt.Sprintf("%d topologies, %d failed", len(items), failed)
		if failed > 0 {
			b.WriteString(st.err.Render(SymbolError+" "+line) + "\n")
		} else {
			b.WriteString(st.title.Render(SymbolOK+" "+line) + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeItem(b *strings.Builder, st styles, it Item) {
	rep := it.Report
	switch {
	case it.Err != nil && rep.OK():
		b.WriteString(st.err.Render(fmt.Sprintf("%s %s: %v", SymbolError, it.Name, it.Err)) + "\n")
		return
	case !rep.OK():
		b.WriteString(st.err.Render(fmt.Sprintf("%s %s: %s", SymbolError, it.Name, count(len(rep.Errors), "error"))))
	case len(rep.Warnings) > 0:
		b.WriteString(st.warning.Render(fmt.Sprintf("%s %s: valid with %s", SymbolWarning, it.Name, count(len(rep.Warnings), "warning"))))
	default:
		b.WriteString(st.title.Render(fmt.Sprintf("%s %s: valid", SymbolOK, it.Name)))
	}
	b.WriteString("\n")

	for _, i := range rep.Errors {
		writeIssue(b, st, st.err, SymbolError, i)
	}
	for _, i := range rep.Warnings {
		writeIssue(b, st, st.warning, SymbolWarning, i)
	}
}

func writeIssue(b *strings.Builder, st styles, tone lipgloss.Style, symbol string, i diag.Issue) {
	b.WriteString("  " + symbol + " " + tone.Render("["+string(i.Kind)+"]"))
	if i.Path != "" {
		b.WriteString(" " + st.path.Render(i.Path) + ":")
	}
	b.WriteString(" " + i.Message + "\n")
	if i.Hint != "" {
		b.WriteString("     " + st.hint.Render(SymbolInfo+" "+i.Hint) + "\n")
	}
}

func count(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
