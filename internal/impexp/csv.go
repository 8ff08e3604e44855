// Package impexp moves ledger data in and out of CSV, JSON and XLSX files.
// Imports are all-or-nothing: a rejected file never reaches the repository.
package impexp

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"kharcha/internal/core"
)

// Header is the fixed CSV column layout.
var Header = []string{"date", "type", "description", "category", "payMethod", "paySubType", "amount", "note", "split", "transfer"}

const (
	colDate = iota
	colType
	colDescription
	colCategory
	colPayMethod
	colPaySubType
	colAmount
	colNote
	colSplit
	colTransfer
)

var errBadHeader = errors.New("header does not match " + strings.Join(Header, ","))

// sortedDays returns the day keys of l in calendar order, restricted to month
// when it is set.
func sortedDays(l *core.Ledger, month string) []core.Day {
	days := make([]core.Day, 0, len(l.Days))
	for day := range l.Days {
		if month != "" && day.Month() != month {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// WriteCSV writes one row per entry, days in calendar order. Split and
// transfer sub-records are embedded as JSON.
func WriteCSV(w io.Writer, l *core.Ledger, month string) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	n := 0
	for _, day := range sortedDays(l, month) {
		for _, e := range l.Days[day] {
			row, err := csvRow(day, e)
			if err != nil {
				return n, err
			}
			if err := cw.Write(row); err != nil {
				return n, fmt.Errorf("write csv row: %w", err)
			}
			n++
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	return n, nil
}

func csvRow(day core.Day, e core.Entry) ([]string, error) {
	row := make([]string, len(Header))
	row[colDate] = string(day)
	row[colType] = string(e.Type)
	row[colDescription] = e.Description
	row[colCategory] = e.Category
	row[colPayMethod] = string(e.PayMethod)
	row[colPaySubType] = e.PaySubType
	row[colAmount] = e.Amount.String()
	row[colNote] = e.Note
	if e.Split != nil {
		b, err := json.Marshal(e.Split)
		if err != nil {
			return nil, fmt.Errorf("encode split of %s: %w", e.ID, err)
		}
		row[colSplit] = string(b)
	}
	if e.Transfer != nil {
		b, err := json.Marshal(e.Transfer)
		if err != nil {
			return nil, fmt.Errorf("encode transfer of %s: %w", e.ID, err)
		}
		row[colTransfer] = string(b)
	}
	return row, nil
}

// CSVResult holds the entries rebuilt from a CSV file. Ids are left empty for
// the repository to assign.
type CSVResult struct {
	Records []core.Record
	Skipped int
}

// ReadCSV parses a file written by WriteCSV. Rows with an unusable date or a
// non-positive or unparseable amount are skipped and counted. A wrong header,
// a ragged row or a broken embedded record rejects the whole file.
func ReadCSV(r io.Reader) (CSVResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return CSVResult{}, &core.ImportFormatError{Format: "csv", Line: 1, Err: errBadHeader}
		}
		return CSVResult{}, csvError(err)
	}
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}
	for i := range Header {
		if strings.TrimSpace(head[i]) != Header[i] {
			return CSVResult{}, &core.ImportFormatError{Format: "csv", Line: 1, Err: errBadHeader}
		}
	}

	var res CSVResult
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return CSVResult{}, csvError(err)
		}
		line, _ := cr.FieldPos(0)

		rec, ok, err := parseRow(row)
		if err != nil {
			return CSVResult{}, &core.ImportFormatError{Format: "csv", Line: line, Err: err}
		}
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &core.ImportFormatError{Format: "csv", Line: pe.Line, Err: pe.Err}
	}
	return &core.ImportFormatError{Format: "csv", Err: err}
}

// parseRow returns ok=false for rows that are skipped rather than rejected.
func parseRow(row []string) (core.Record, bool, error) {
	day, err := core.ParseDay(row[colDate])
	if err != nil {
		return core.Record{}, false, nil
	}
	amount, err := core.ParsePositiveAmount(row[colAmount])
	if err != nil {
		return core.Record{}, false, nil
	}

	e := core.Entry{
		Type:        core.EntryType(strings.TrimSpace(row[colType])),
		Description: strings.TrimSpace(row[colDescription]),
		Category:    strings.TrimSpace(row[colCategory]),
		PayMethod:   core.PayMethod(strings.TrimSpace(row[colPayMethod])),
		PaySubType:  strings.TrimSpace(row[colPaySubType]),
		Amount:      amount,
		Note:        row[colNote],
	}
	if !e.Type.IsValid() {
		e.Type = core.Expense
	}
	if !e.PayMethod.IsValid() {
		e.PayMethod = core.Cash
	}

	if blob := strings.TrimSpace(row[colSplit]); blob != "" {
		var s core.Split
		if err := json.Unmarshal([]byte(blob), &s); err != nil {
			return core.Record{}, false, fmt.Errorf("split column: %w", err)
		}
		e.Split = &s
	}
	if blob := strings.TrimSpace(row[colTransfer]); blob != "" {
		var t core.TransferRoute
		if err := json.Unmarshal([]byte(blob), &t); err != nil {
			return core.Record{}, false, fmt.Errorf("transfer column: %w", err)
		}
		e.Transfer = &t
	}
	if e.Type == core.Transfer && e.Transfer == nil {
		e.Transfer = &core.TransferRoute{}
	}
	return core.Record{Day: day, Entry: e}, true, nil
}
