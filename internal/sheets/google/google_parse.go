package google

import (
	"fmt"
	"strings"

	"smartspend/internal/core"
	"smartspend/internal/export"
)

// Column layout of the expenses tab.
var columns = []string{"Date", "Description", "Category", "Amount", "User", "ID"}

const (
	lastColumn  = "F"
	idColumnIdx = 5
)

func headerRow() []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c
	}
	return out
}

func expenseRow(e core.Expense) []any {
	return []any{
		e.Date.String(),
		export.CellText(e.Description),
		e.Category.Label(),
		e.Amount.Float(),
		e.UserID,
		e.ID,
	}
}

// findRowByID returns the zero-based row index holding id, or -1. The id
// column is located through the header when present.
func findRowByID(values [][]interface{}, id string) int {
	id = strings.TrimSpace(id)
	if id == "" || len(values) == 0 {
		return -1
	}
	col := idColumnIdx
	start := 0
	if h := indexOf(toStrings(values[0]), "ID"); h >= 0 {
		col, start = h, 1
	}
	for i := start; i < len(values); i++ {
		if safeGet(toStrings(values[i]), col) == id {
			return i
		}
	}
	return -1
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
