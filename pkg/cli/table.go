// Package cli holds presentation helpers shared by the CLI Facade's
// subcommands.
package cli

import (
	"fmt"
	"io"
	"strings"
)

// PrintTable writes rows as a column-aligned table, each column
// padded to the widest value (including its header) in that column
// — grounded on the source's pp_table() helper, the table formatter
// behind `status` (§4.8).
func PrintTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow(w, header, widths)
	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, c := range cells {
		width := 0
		if i < len(widths) {
			width = widths[i]
		}
		padded[i] = c + strings.Repeat(" ", width-len(c))
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "  "), " "))
}
