package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	genStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	retryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	exceptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// GenLine reports a generated feature.
func GenLine(w io.Writer, path, out string) {
	fmt.Fprintln(w, genStyle.Render("gen")+"  "+path+" -> "+out)
}

// SummaryLine closes a generate run.
func SummaryLine(w io.Writer, features, scenarios, retrying int) {
	fmt.Fprintf(w, "generated %d features (%d scenarios, %d with retry)\n", features, scenarios, retrying)
}

// PolicyLabel renders a retry policy as "retry:N", "retry:N except:T" or "-".
func PolicyLabel(attempts int, exempt string) string {
	if attempts <= 0 {
		return "-"
	}
	label := fmt.Sprintf("retry:%d", attempts)
	if exempt != "" {
		label += " except:" + exempt
	}
	return label
}

func renderPolicy(attempts int, exempt string) string {
	if attempts <= 0 {
		return faintStyle.Render("-")
	}
	label := retryStyle.Render(fmt.Sprintf("retry:%d", attempts))
	if exempt != "" {
		label += " " + exceptStyle.Render("except:"+exempt)
	}
	return label
}

// PolicyRow prints one scenario of the list command with padded columns.
func PolicyRow(w io.Writer, file, scenario string, attempts int, exempt string, fileWidth, nameWidth int) {
	fmt.Fprintf(w, "%-*s  %-*s  %s\n", fileWidth, file, nameWidth, scenario, renderPolicy(attempts, exempt))
}

// ShowHeader prints the file and scenario being shown.
func ShowHeader(w io.Writer, file string, line int) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s:%d", file, line)))
}

// ShowPolicy prints the resolved policy and the methods it produced.
func ShowPolicy(w io.Writer, attempts int, exempt string, methods []string) {
	fmt.Fprintln(w, "Policy: "+renderPolicy(attempts, exempt))
	if len(methods) > 0 {
		fmt.Fprintln(w, "Methods: "+strings.Join(methods, ", "))
	}
}

// ShowGherkin prints scenario source with keywords and tags highlighted.
func ShowGherkin(w io.Writer, content string) {
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintln(w, highlight(line))
	}
}

var gherkinKeywords = []string{
	"Scenario Outline:", "Scenario Template:", "Scenario:", "Example:", "Background:",
	"Examples:", "Scenarios:", "Given ", "When ", "Then ", "And ", "But ", "* ",
}

func highlight(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(trimmed)]
	if strings.HasPrefix(trimmed, "@") {
		return indent + tagStyle.Render(trimmed)
	}
	for _, kw := range gherkinKeywords {
		if rest, ok := strings.CutPrefix(trimmed, kw); ok {
			word := strings.TrimRight(kw, " ")
			return indent + keywordStyle.Render(word) + kw[len(word):] + rest
		}
	}
	return line
}

// StatusLine prints one "label: count" line of the status report.
func StatusLine(w io.Writer, label string, count int) {
	fmt.Fprintf(w, "  %s: %d\n", label, count)
}
