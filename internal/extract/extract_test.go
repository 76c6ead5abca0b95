package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"report-backend/internal/shared/storage/object/local"
)

func TestLoadCSV(t *testing.T) {
	data := []byte("\ufeffregion,revenue,,region\nNorth,1200.5,a,x\n\n,,,\nSouth,-3e2\n")
	rec, err := Load(context.Background(), FormatCSV, data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Kind != KindTable {
		t.Fatalf("expected table, got %s", rec.Kind)
	}
	wantHeaders := []string{"region", "revenue", "column_3", "region_2"}
	if strings.Join(rec.Table.Headers, "|") != strings.Join(wantHeaders, "|") {
		t.Fatalf("unexpected headers %v", rec.Table.Headers)
	}
	if len(rec.Table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rec.Table.Rows))
	}
	if v, _ := rec.Table.Rows[0].Get("revenue"); v != 1200.5 {
		t.Fatalf("expected numeric revenue, got %#v", v)
	}
	if v, _ := rec.Table.Rows[1].Get("revenue"); v != -300.0 {
		t.Fatalf("expected -300, got %#v", v)
	}
	if v, _ := rec.Table.Rows[1].Get("region_2"); v != "" {
		t.Fatalf("expected padded empty cell, got %#v", v)
	}
}

func TestNormalizeHeadersStayUnique(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{[]string{"a", "a", "a_2"}, []string{"a", "a_2", "a_2_2"}},
		{[]string{"a_2", "a", "a"}, []string{"a_2", "a", "a_3"}},
		{[]string{"", "column_1", "x", "x", "x"}, []string{"column_1", "column_1_2", "x", "x_2", "x_3"}},
	}
	for _, tc := range cases {
		got := normalizeHeaders(tc.in)
		if strings.Join(got, "|") != strings.Join(tc.want, "|") {
			t.Fatalf("normalizeHeaders(%q) = %q, want %q", tc.in, got, tc.want)
		}
		seen := make(map[string]bool, len(got))
		for _, h := range got {
			if seen[h] {
				t.Fatalf("duplicate header %q in %q", h, got)
			}
			seen[h] = true
		}
	}
}

func TestLoadCSVSemicolon(t *testing.T) {
	rec, err := Load(context.Background(), FormatCSV, []byte("a;b\n1;007\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rec.Table.Headers) != 2 {
		t.Fatalf("expected 2 headers, got %v", rec.Table.Headers)
	}
	if v, _ := rec.Table.Rows[0].Get("b"); v != "007" {
		t.Fatalf("leading zeros should stay text, got %#v", v)
	}
}

func TestLoadCSVHeaderOnlyIsEmpty(t *testing.T) {
	_, err := Load(context.Background(), FormatCSV, []byte("a,b\n"))
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{{"product", "units"}, {"A", 3}, {"B", 5}, {"C", 8}}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()

	rec, err := Load(context.Background(), FormatXLSX, buf.Bytes())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rec.Table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rec.Table.Rows))
	}
	if v, _ := rec.Table.Rows[2].Get("units"); v != 8.0 {
		t.Fatalf("expected 8, got %#v", v)
	}
}

func TestLoadXLSXGarbage(t *testing.T) {
	_, err := Load(context.Background(), FormatXLSX, []byte("not a zip"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestLoadXLSGarbage(t *testing.T) {
	_, err := Load(context.Background(), FormatXLS, []byte("not an ole2 file"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestLoadXML(t *testing.T) {
	rec, err := Load(context.Background(), FormatXML, []byte("\ufeff<orders><order id=\"1\"/></orders>"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Kind != KindText || !strings.HasPrefix(rec.Text, "<orders>") {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestLoadWhitespaceTextIsEmpty(t *testing.T) {
	_, err := Load(context.Background(), FormatXML, []byte(" \n\t "))
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestLoadUnknownFormat(t *testing.T) {
	_, err := Load(context.Background(), Format("docx"), []byte("x"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadObjectFromStaging(t *testing.T) {
	store := local.New(t.TempDir())
	ctx := context.Background()
	key, _, _, err := store.Save(ctx, "owner-1", "data.csv", bytes.NewReader([]byte("k,v\nx,1\n")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	rec, raw, err := LoadObject(ctx, store, key, FormatCSV, 1024)
	if err != nil {
		t.Fatalf("load object: %v", err)
	}
	if len(raw) == 0 || len(rec.Table.Rows) != 1 {
		t.Fatalf("unexpected result rows=%d raw=%d", len(rec.Table.Rows), len(raw))
	}
	if _, _, err := LoadObject(ctx, store, key, FormatCSV, 4); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestRowMarshalKeepsHeaderOrder(t *testing.T) {
	row := Row{Columns: []string{"z", "a"}, Values: []any{"first", 2.0}}
	raw, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"z":"first","a":2}` {
		t.Fatalf("unexpected json %s", raw)
	}
}
