package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/xnested/internal/display"
)

var outputColumns = []string{"", "NAME", "GEOMETRY", "STATE"}

// OutputTable renders host outputs as an aligned table.
func OutputTable(outs []display.Output) string {
	if len(outs) == 0 {
		return SubtleStyle.Render("No outputs reported by the host X server")
	}

	rows := make([][]string, 0, len(outs))
	for _, o := range outs {
		rows = append(rows, outputRow(o))
	}

	widths := make([]int, len(outputColumns))
	for i, h := range outputColumns {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	b.WriteString(renderRow(outputColumns, widths, TableHeaderStyle))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(renderRow(r, widths, TableCellStyle))
	}
	return b.String()
}

func outputRow(o display.Output) []string {
	indicator := DisabledIndicator
	geometry := "-"
	state := "disconnected"
	switch {
	case o.Enabled:
		indicator = EnabledIndicator
		geometry = fmt.Sprintf("%dx%d+%d+%d", o.Width, o.Height, o.X, o.Y)
		state = "enabled"
	case o.Connected:
		state = "off"
	}
	return []string{indicator, o.Name, geometry, state}
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = style.Width(widths[i] + style.GetHorizontalPadding()).Render(c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
