package impexp

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"kharcha/internal/core"
)

const sheetName = "Entries"

var xlsxHeader = []string{"Date", "Type", "Description", "Category", "Payment", "Instrument", "Amount", "Note", "Split status", "From", "To"}

// WriteXLSX writes the entries of month (or all of them) as a spreadsheet
// with one row per entry. Amounts are numeric cells.
func WriteXLSX(w io.Writer, l *core.Ledger, month string) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return 0, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return 0, fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &xlsxHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, day := range sortedDays(l, month) {
		for _, e := range l.Days[day] {
			amount, _ := e.Amount.Float64()
			values := []any{
				string(day), string(e.Type), e.Description, e.CategoryOrDefault(),
				string(e.PayMethod), e.PaySubType, amount, e.Note, "", "", "",
			}
			if e.HasSplit() {
				values[8] = string(e.Split.Status)
			}
			if e.Transfer != nil {
				values[9], values[10] = e.Transfer.From, e.Transfer.To
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return row - 2, err
			}
			if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
				return row - 2, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 12); err != nil {
		return row - 2, err
	}
	if err := f.SetColWidth(sheetName, "C", "C", 30); err != nil {
		return row - 2, err
	}
	if err := f.SetColWidth(sheetName, "H", "H", 30); err != nil {
		return row - 2, err
	}

	if err := f.Write(w); err != nil {
		return row - 2, fmt.Errorf("write workbook: %w", err)
	}
	return row - 2, nil
}
