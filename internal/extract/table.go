package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var numericCell = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)

func decodeCSV(data []byte) (Record, error) {
	data = stripBOM(data)
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Record{}, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return tableRecord(rows), nil
}

// sniffDelimiter picks ';' over ',' when the first line has more semicolons.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func decodeXLSX(data []byte) (Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Record{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Record{Kind: KindTable, Table: &Table{}}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Record{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return tableRecord(rows), nil
}

func decodeXLS(data []byte) (rec Record, err error) {
	// The legacy reader panics on some malformed workbooks.
	defer func() {
		if r := recover(); r != nil {
			rec = Record{}
			err = fmt.Errorf("read xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return Record{}, fmt.Errorf("open workbook: %w", err)
	}
	if wb == nil {
		return Record{}, errors.New("open workbook: unreadable xls")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return Record{Kind: KindTable, Table: &Table{}}, nil
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		var cells []string
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return tableRecord(rows), nil
}

// xlsRow returns nil for rows missing from the sheet.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// tableRecord turns raw string rows into a table record. The first
// non-blank row is the header row. Blank rows are skipped.
func tableRecord(raw [][]string) Record {
	table := &Table{}
	headerSeen := false
	for _, cells := range raw {
		if blankRow(cells) {
			continue
		}
		if !headerSeen {
			table.Headers = normalizeHeaders(cells)
			headerSeen = true
			continue
		}
		table.Rows = append(table.Rows, buildRow(table.Headers, cells))
	}
	return Record{Kind: KindTable, Table: table}
}

func normalizeHeaders(cells []string) []string {
	headers := make([]string, len(cells))
	used := make(map[string]bool, len(cells))
	next := make(map[string]int, len(cells))
	for i, cell := range cells {
		name := strings.TrimSpace(string(stripBOM([]byte(cell))))
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if used[name] {
			base, n := name, next[name]
			if n < 2 {
				n = 2
			}
			for used[base+"_"+strconv.Itoa(n)] {
				n++
			}
			name = base + "_" + strconv.Itoa(n)
			next[base] = n + 1
		}
		used[name] = true
		headers[i] = name
	}
	return headers
}

func buildRow(headers []string, cells []string) Row {
	row := Row{Columns: headers, Values: make([]any, len(headers))}
	for i := range headers {
		if i < len(cells) {
			row.Values[i] = cellValue(cells[i])
		} else {
			row.Values[i] = ""
		}
	}
	return row
}

func cellValue(cell string) any {
	v := strings.TrimSpace(cell)
	if numericCell.MatchString(v) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
