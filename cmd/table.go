package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Yates-Labs/beacon/internal/orchestrator"
)

type column struct {
	title string
	width int
	right bool
}

// printTable renders rows under a header with box-drawing separators.
func printTable(w io.Writer, cols []column, rows [][]string) {
	cellHeader := lipgloss.NewStyle().Foreground(headerColor).Bold(true).Padding(0, 1)

	headers := make([]string, len(cols))
	separator := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = cellHeader.Width(c.width).Render(c.title)
		separator[i] = strings.Repeat("─", c.width)
	}
	fmt.Fprintln(w, strings.Join(headers, borderStyle.Render("│")))
	fmt.Fprintln(w, borderStyle.Render(strings.Join(separator, "┼")))

	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			style := lipgloss.NewStyle().Padding(0, 1).Width(c.width)
			if c.right {
				style = style.Foreground(numberColor).Align(lipgloss.Right)
			} else {
				style = style.Foreground(accentColor)
			}
			if i < len(row) {
				cells[i] = style.Render(row[i])
			}
		}
		fmt.Fprintln(w, strings.Join(cells, borderStyle.Render("│")))
	}
}

// categoryRows renders per-category counts for printTable.
func categoryRows(stats []orchestrator.CategoryStats) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, c := range stats {
		rows = append(rows, []string{
			c.Category,
			fmt.Sprintf("%d", c.Documents),
			fmt.Sprintf("%d", c.Chunks),
			fmt.Sprintf("%.0f", c.AverageSize),
		})
	}
	return rows
}

var categoryColumns = []column{
	{title: "CATEGORY", width: 28},
	{title: "DOCUMENTS", width: 11, right: true},
	{title: "CHUNKS", width: 10, right: true},
	{title: "AVG SIZE", width: 10, right: true},
}
