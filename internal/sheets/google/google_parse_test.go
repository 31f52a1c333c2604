package google

import (
	"context"
	"strings"
	"testing"

	"smartspend/internal/core"
)

func TestExpenseRow(t *testing.T) {
	e := core.Expense{
		ID:          "e-1",
		Description: "Groceries",
		Amount:      core.MoneyFromFloat(-120.5),
		Category:    core.Food,
		Date:        core.NewDate(2024, 3, 9),
		UserID:      "u1",
	}
	row := expenseRow(e)
	if len(row) != len(columns) {
		t.Fatalf("row has %d cells, want %d", len(row), len(columns))
	}
	if row[0] != "2024-03-09" {
		t.Errorf("date cell = %v", row[0])
	}
	if row[2] != core.Food.Label() {
		t.Errorf("category cell = %v", row[2])
	}
	if row[3] != -120.5 {
		t.Errorf("amount cell = %v", row[3])
	}
	if row[idColumnIdx] != "e-1" {
		t.Errorf("id cell = %v", row[idColumnIdx])
	}
}

func TestExpenseRow_FormulaDescription(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"Groceries", "Groceries"},
		{`=HYPERLINK("http://evil.example","x")`, `'=HYPERLINK("http://evil.example","x")`},
		{"@SUM(A1)", "'@SUM(A1)"},
	}
	for _, tt := range tests {
		row := expenseRow(core.Expense{ID: "e-1", Description: tt.desc, Category: core.Food, Date: core.NewDate(2024, 3, 9)})
		if row[1] != tt.want {
			t.Errorf("description cell for %q = %v, want %q", tt.desc, row[1], tt.want)
		}
	}
}

func TestFindRowByID(t *testing.T) {
	withHeader := [][]interface{}{
		headerRow(),
		{"2024-03-01", "Rent", "Housing", -900.0, "u1", "a"},
		{"2024-03-02", "Salary", "Income", 3500.0, "u1", "b"},
	}
	noHeader := [][]interface{}{
		{"2024-03-01", "Rent", "Housing", -900.0, "u1", "a"},
		{"2024-03-02", "Short row"},
		{"2024-03-03", "Bus", "Transport", -2.5, "u1", " c "},
	}
	movedID := [][]interface{}{
		{"ID", "Date"},
		{"x", "2024-01-01"},
		{"y", "2024-01-02"},
	}

	tests := []struct {
		name   string
		values [][]interface{}
		id     string
		want   int
	}{
		{"header present", withHeader, "b", 2},
		{"header row never matches", withHeader, "ID", -1},
		{"no header", noHeader, "a", 0},
		{"trimmed cells", noHeader, "c", 2},
		{"missing id", noHeader, "zzz", -1},
		{"empty id", noHeader, "", -1},
		{"empty sheet", nil, "a", -1},
		{"id column from header", movedID, "y", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findRowByID(tt.values, tt.id); got != tt.want {
				t.Errorf("findRowByID(%q) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}

func TestSafeGet(t *testing.T) {
	arr := []string{"a", "b"}
	if safeGet(arr, 1) != "b" || safeGet(arr, 2) != "" || safeGet(arr, -1) != "" {
		t.Fatal("safeGet out of range handling broken")
	}
}

func TestNew_Validation(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := New(context.Background(), Options{}); err == nil || err.Error() != "missing spreadsheet id" {
		t.Errorf("expected missing spreadsheet id error, got %v", err)
	}

	_, err := New(context.Background(), Options{SpreadsheetID: "sheet"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected credentials error, got %v", err)
	}

	_, err = New(context.Background(), Options{SpreadsheetID: "sheet", CredentialsFile: "/non/existent.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("expected file read error, got %v", err)
	}
}

func TestClient_AppendRequiresService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Expenses"}
	if _, err := c.Append(context.Background(), core.Expense{}); err == nil {
		t.Fatal("expected error for expense without id")
	}
	if _, err := c.Append(context.Background(), core.Expense{ID: "x"}); err == nil {
		t.Fatal("expected error for nil service")
	}
	if err := c.DeleteByID(context.Background(), "x"); err == nil {
		t.Fatal("expected error for nil service")
	}
}
