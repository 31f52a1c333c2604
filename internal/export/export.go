// Package export renders a user's expenses as a downloadable file.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"

	"smartspend/internal/core"
)

type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
	JSON Format = "json"
)

var ErrUnknownFormat = errors.New("unknown export format")

const sheetName = "Expenses"

var header = []string{"Date", "Description", "Category", "Amount", "ID"}

// ParseFormat accepts a format name case-insensitively; empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return XLSX, nil
	case XLSX, CSV, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q: must be xlsx, csv or json", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case CSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json"
	}
}

// FileName is the attachment name for a download taken at now.
func (f Format) FileName(now time.Time) string {
	return fmt.Sprintf("smartspend-expenses-%s.%s", now.UTC().Format("2006-01-02"), f)
}

// Write encodes expenses in the given format, in the order given.
func Write(w io.Writer, f Format, expenses []core.Expense) error {
	switch f {
	case XLSX:
		return writeXLSX(w, expenses)
	case CSV:
		return writeCSV(w, expenses)
	case JSON:
		return writeJSON(w, expenses)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

// CellText makes user text inert in spreadsheet applications: a value that
// would be read as a formula is prefixed with an apostrophe.
func CellText(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

func record(e core.Expense) []string {
	return []string{e.Date.String(), CellText(e.Description), e.Category.Label(), e.Amount.String(), e.ID}
}

func writeCSV(w io.Writer, expenses []core.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		if err := cw.Write(record(e)); err != nil {
			return fmt.Errorf("write csv row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(expenses); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, expenses []core.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.Date.String(), CellText(e.Description), e.Category.Label(), e.Amount.Float(), e.ID}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %s: %w", e.ID, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
