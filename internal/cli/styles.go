package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	badStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#dc2626"))
)

// table renders rows as padded columns with a styled header.
func table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}

	var sb strings.Builder
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = pad(h, widths[i])
	}
	sb.WriteString(headerStyle.Render(strings.Join(cells, "  ")))
	sb.WriteByte('\n')
	for _, r := range rows {
		for i := range header {
			c := ""
			if i < len(r) {
				c = r[i]
			}
			cells[i] = pad(c, widths[i])
		}
		sb.WriteString(strings.Join(cells, "  "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func pad(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// count renders a counter red when non-zero.
func count(n int) string {
	if n == 0 {
		return goodStyle.Render("0")
	}
	return badStyle.Render(fmt.Sprint(n))
}
