// Package formatter renders item lists and run ledgers as aligned
// markdown tables.
package formatter

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/SHSHJW/top10-daily/internal/models"
)

// MaxCellWidth bounds the display width of a single cell.
const MaxCellWidth = 48

// FormatItemsTable renders items as an aligned table. Widths are display
// widths, so Hangul and other wide characters line up.
func FormatItemsTable(items []models.CanonicalItem) string {
	header := []string{"#", "Title", "Traffic", "Category", "URL"}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.Itoa(item.Rank),
			item.Title,
			item.Traffic,
			item.Category,
			item.URL,
		})
	}

	return FormatTable(header, rows)
}

// FormatTable renders a header and rows as an aligned markdown table.
func FormatTable(header []string, rows [][]string) string {
	table := make([][]string, 0, len(rows)+1)
	table = append(table, cleanRow(header))

	for _, row := range rows {
		table = append(table, cleanRow(row))
	}

	return strings.Join(alignTable(table), "\n") + "\n"
}

func cleanRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		cell = strings.Join(strings.Fields(cell), " ")
		cell = runewidth.Truncate(cell, MaxCellWidth, "…")
		out[i] = strings.ReplaceAll(cell, "|", `\|`)
	}

	return out
}

// alignTable pads every cell to its column's display width and inserts
// the separator row after the header.
func alignTable(table [][]string) []string {
	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	colWidths := make([]int, colCount)

	for _, row := range table {
		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// Ensure min width for separator (usually 3 dashes "---")
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	result := make([]string, 0, len(table)+1)

	for i, row := range table {
		result = append(result, renderRow(row, colWidths))

		if i == 0 {
			sep := make([]string, colCount)
			for j := range sep {
				sep[j] = strings.Repeat("-", colWidths[j])
			}

			result = append(result, renderRow(sep, colWidths))
		}
	}

	return result
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		content := ""
		if j < len(row) {
			content = row[j]
		}

		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(content, width))
		sb.WriteString(" |")
	}

	return sb.String()
}
