package strings

import (
	"fmt"
	"strings"
)

// DefaultCellWidth is the widest a free-text table cell gets before it is
// cut.
const DefaultCellWidth = 40

// MinCellWidth leaves room for one character plus the ellipsis.
const MinCellWidth = 4

// Cell flattens s to a single line and cuts it to width runes, ending in
// "..." when cut. Widths below MinCellWidth are raised to it.
func Cell(s string, width int) string {
	if width < MinCellWidth {
		width = MinCellWidth
	}

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width-3]) + "..."
	}
	return s
}

// CellValue renders an arbitrary JSON value for a table cell.
func CellValue(v any, width int) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return Cell(val, width)
	default:
		return Cell(fmt.Sprint(val), width)
	}
}
