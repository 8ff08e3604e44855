package impexp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"kharcha/internal/core"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
	"kharcha/internal/storage"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sample() *core.Ledger {
	l := core.NewLedger()
	split := &core.Split{Enabled: true, Mode: core.SplitEqual, MyShare: dec("30"), Participants: []core.Participant{
		{Name: "A", Amount: dec("30"), Received: true},
		{Name: "B", Amount: dec("30")},
	}}
	split.Recompute()
	l.Days["2025-01-05"] = []core.Entry{
		{ID: "1", Type: core.Expense, Description: `Dinner, "the good one"`, Category: "Food", PayMethod: core.UPI, PaySubType: "GPay", Amount: dec("30"), Split: split},
		{ID: "2", Type: core.Income, Description: "Salary", Category: "Salary", PayMethod: core.Bank, PaySubType: "HDFC", Amount: dec("5000"), Note: "line one\nline two"},
	}
	l.Days["2025-02-01"] = []core.Entry{
		{ID: "3", Type: core.Transfer, Description: "Savings", PayMethod: core.SelfTransfer, Amount: dec("700.50"), Transfer: &core.TransferRoute{From: "HDFC", To: "SBI"}},
	}
	l.Accounts["2025-01"] = map[string]decimal.Decimal{"HDFC": dec("1000")}
	return l
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, sample(), "")
	if err != nil || n != 3 {
		t.Fatalf("WriteCSV() = %d, %v", n, err)
	}

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if first != strings.Join(Header, ",") {
		t.Fatalf("unexpected header %q", first)
	}
	if !strings.Contains(buf.String(), `"Dinner, ""the good one"""`) {
		t.Fatalf("description not quoted:\n%s", buf.String())
	}

	res, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if res.Skipped != 0 || len(res.Records) != 3 {
		t.Fatalf("got %d records, %d skipped", len(res.Records), res.Skipped)
	}

	want := sample()
	for i, rec := range res.Records {
		if rec.Entry.ID != "" {
			t.Fatalf("record %d: imported rows carry no id", i)
		}
		var orig core.Entry
		for _, e := range want.Days[rec.Day] {
			if e.Description == rec.Entry.Description {
				orig = e
			}
		}
		if orig.ID == "" {
			t.Fatalf("record %d: no source entry for %+v", i, rec)
		}
		if !orig.Amount.Equal(rec.Entry.Amount) || orig.Type != rec.Entry.Type || orig.Note != rec.Entry.Note {
			t.Fatalf("record %d differs: %+v vs %+v", i, rec.Entry, orig)
		}
		if (orig.Split == nil) != (rec.Entry.Split == nil) || (orig.Transfer == nil) != (rec.Entry.Transfer == nil) {
			t.Fatalf("record %d lost a sub-record", i)
		}
		if orig.Split != nil && (len(rec.Entry.Split.Participants) != 2 || !rec.Entry.Split.Participants[0].Received) {
			t.Fatalf("split not restored: %+v", rec.Entry.Split)
		}
	}
}

func TestWriteCSVMonth(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, sample(), "2025-02")
	if err != nil || n != 1 {
		t.Fatalf("WriteCSV() = %d, %v", n, err)
	}
	if strings.Contains(buf.String(), "2025-01-05") {
		t.Fatalf("other months leaked into the export")
	}
}

func TestReadCSV(t *testing.T) {
	head := strings.Join(Header, ",") + "\n"
	tests := []struct {
		name        string
		input       string
		wantRecords int
		wantSkipped int
		wantErr     bool
	}{
		{name: "empty file", input: "", wantErr: true},
		{name: "wrong header", input: "date,type,amount\n", wantErr: true},
		{name: "renamed column", input: strings.Replace(head, "note", "memo", 1), wantErr: true},
		{name: "header only", input: head},
		{name: "bom header", input: "\ufeff" + head + "2025-01-01,Expense,Tea,,,,10,,,\n", wantRecords: 1},
		{name: "defaults", input: head + "2025-01-01,,,,,,10,,,\n", wantRecords: 1},
		{name: "skips bad amounts", input: head +
			"2025-01-01,Expense,Zero,,Cash,,0,,,\n" +
			"2025-01-01,Expense,Text,,Cash,,abc,,,\n" +
			"2025-01-01,Expense,Negative,,Cash,,-5,,,\n" +
			"2025-01-01,Expense,Good,,Cash,\"12,50\",7,,,\n", wantRecords: 1, wantSkipped: 3},
		{name: "skips bad date", input: head + "yesterday,Expense,Tea,,Cash,,10,,,\n", wantSkipped: 1},
		{name: "ragged row", input: head + "2025-01-01,Expense,Tea\n", wantErr: true},
		{name: "broken split", input: head + "2025-01-01,Expense,Tea,,Cash,,10,,{oops,\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ReadCSV(strings.NewReader(tt.input))
			if tt.wantErr {
				var fe *core.ImportFormatError
				if !errors.As(err, &fe) {
					t.Fatalf("expected ImportFormatError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadCSV: %v", err)
			}
			if len(res.Records) != tt.wantRecords || res.Skipped != tt.wantSkipped {
				t.Fatalf("got %d records, %d skipped", len(res.Records), res.Skipped)
			}
		})
	}
}

func TestReadCSVDefaults(t *testing.T) {
	input := strings.Join(Header, ",") + "\n" +
		"2025-03-01,Loan,Mystery,,Cheque,,25,,,\n" +
		`2025-03-02,Transfer,Move,,Self transfer,,10,,,` + "\n"
	res, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if e := res.Records[0].Entry; e.Type != core.Expense || e.PayMethod != core.Cash {
		t.Fatalf("unknown values must fall back to defaults: %+v", e)
	}
	if e := res.Records[1].Entry; e.Transfer == nil {
		t.Fatalf("transfer rows always carry a transfer record")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sample(), "2025-01"); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"days\": {") {
		t.Fatalf("expected two-space indentation:\n%s", buf.String())
	}

	var back core.Ledger
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(back.Days) != 1 || len(back.Days["2025-01-05"]) != 2 {
		t.Fatalf("month subset wrong: %v", back.Days)
	}
	if _, ok := back.Accounts["2025-01"]; !ok {
		t.Fatalf("the rest of the document must be kept")
	}
	if !strings.Contains(buf.String(), `"amount": 5000`) {
		t.Fatalf("amounts must be JSON numbers:\n%s", buf.String())
	}
}

func TestReadJSON(t *testing.T) {
	var full bytes.Buffer
	if err := WriteJSON(&full, sample(), ""); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{name: "round trip", input: full.String(), wantLen: 3},
		{name: "legacy numeric ids", input: `{"version":1,"days":{"2025-01-01":[{"id":1736000000000,"type":"Expense","description":"Tea","amount":10}]}}`, wantLen: 1},
		{name: "minimal", input: `{"days":{}}`},
		{name: "not json", input: `{"days":`, wantErr: true},
		{name: "array", input: `[]`, wantErr: true},
		{name: "null", input: `null`, wantErr: true},
		{name: "bad day key", input: `{"days":{"Jan 1":[]}}`, wantErr: true},
		{name: "missing id", input: `{"days":{"2025-01-01":[{"type":"Expense","amount":1}]}}`, wantErr: true},
		{name: "duplicate id", input: `{"days":{"2025-01-01":[{"id":"a","amount":1}],"2025-01-02":[{"id":"a","amount":1}]}}`, wantErr: true},
		{name: "bad type", input: `{"days":{"2025-01-01":[{"id":"a","type":"Loan","amount":1}]}}`, wantErr: true},
		{name: "negative amount", input: `{"days":{"2025-01-01":[{"id":"a","amount":-1}]}}`, wantErr: true},
		{name: "future version", input: `{"version":99,"days":{}}`, wantErr: true},
		{name: "bad accounts month", input: `{"days":{},"accounts":{"2025":{"HDFC":1}}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ReadJSON(strings.NewReader(tt.input))
			if tt.wantErr {
				var fe *core.ImportFormatError
				if !errors.As(err, &fe) {
					t.Fatalf("expected ImportFormatError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadJSON: %v", err)
			}
			if l.Len() != tt.wantLen {
				t.Fatalf("got %d entries, want %d", l.Len(), tt.wantLen)
			}
			if l.Settings.Banks == nil || l.PaymentBankMap == nil || l.Version != core.CurrentVersion {
				t.Fatalf("document not normalized: %+v", l)
			}
		})
	}
}

func TestExportMonths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	paths, err := ExportMonths(context.Background(), sample(), dir)
	if err != nil {
		t.Fatalf("ExportMonths: %v", err)
	}
	want := []string{filepath.Join(dir, "kharcha-2025-01.json"), filepath.Join(dir, "kharcha-2025-02.json")}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		l, err := ReadJSON(f)
		f.Close()
		if err != nil {
			t.Fatalf("read back %s: %v", p, err)
		}
		if len(l.Days) != 1 {
			t.Fatalf("backup %d holds %d days", i, len(l.Days))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ExportMonths(ctx, sample(), t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteXLSX(&buf, sample(), "2025-01")
	if err != nil || n != 2 {
		t.Fatalf("WriteXLSX() = %d, %v", n, err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "Date" || rows[1][2] != `Dinner, "the good one"` || rows[1][8] != "partially" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func newService(t *testing.T) (*Service, *ledger.Repository) {
	t.Helper()
	repo := ledger.NewRepository(storage.NewMemoryStore(), log.Discard())
	return NewService(repo, log.Discard()), repo
}

func TestServiceImportIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	if _, err := repo.Add(ctx, "2025-01-01", ledger.Draft{Description: "Keep me", Amount: dec("5")}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := svc.ImportJSON(ctx, strings.NewReader(`{"days":{"bad":[]}}`)); err == nil {
		t.Fatalf("expected a rejected import")
	}
	bad := strings.Join(Header, ",") + "\n2025-01-02,Expense,Tea,,Cash,,10,,{,\n"
	if _, _, err := svc.ImportCSV(ctx, strings.NewReader(bad)); err == nil {
		t.Fatalf("expected a rejected import")
	}

	doc, _ := repo.Snapshot(ctx)
	if doc.Len() != 1 || doc.Days["2025-01-01"][0].Description != "Keep me" {
		t.Fatalf("failed imports must leave the document untouched: %v", doc.Days)
	}
}

func TestServiceImportAndExport(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	var csvBuf bytes.Buffer
	if _, err := WriteCSV(&csvBuf, sample(), ""); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	n, skipped, err := svc.ImportCSV(ctx, &csvBuf)
	if err != nil || n != 3 || skipped != 0 {
		t.Fatalf("ImportCSV() = %d, %d, %v", n, skipped, err)
	}
	doc, _ := repo.Snapshot(ctx)
	ids := map[core.EntryID]bool{}
	for _, entries := range doc.Days {
		for _, e := range entries {
			if e.ID == "" || ids[e.ID] {
				t.Fatalf("imported entries need fresh unique ids, got %q", e.ID)
			}
			ids[e.ID] = true
		}
	}

	var out bytes.Buffer
	if err := svc.Export(ctx, &out, FormatJSON, ""); err != nil {
		t.Fatalf("Export: %v", err)
	}
	count, err := svc.ImportJSON(ctx, &out)
	if err != nil || count != 3 {
		t.Fatalf("ImportJSON() = %d, %v", count, err)
	}

	if err := svc.Export(ctx, &out, "pdf", ""); !core.IsValidation(err) {
		t.Fatalf("expected a validation error for an unknown format, got %v", err)
	}
}
