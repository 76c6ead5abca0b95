package extract

import (
	"bytes"
	"encoding/json"
)

// Kind tells table records from text records.
type Kind string

const (
	KindTable Kind = "table"
	KindText  Kind = "text"
)

// Record is the canonical in-memory form of an uploaded document.
// Exactly one of Table or Text is set, according to Kind.
type Record struct {
	Kind  Kind
	Table *Table
	Text  string
}

// Table holds decoded rows keyed by the header row.
type Table struct {
	Headers []string
	Rows    []Row
}

// Row maps column names to cell values in header order. Values are strings or float64.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of a column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

func (r Row) clone() Row {
	return Row{
		Columns: append([]string(nil), r.Columns...),
		Values:  append([]any(nil), r.Values...),
	}
}

// MarshalJSON writes the row as an object whose keys keep header order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		var val any = ""
		if i < len(r.Values) {
			val = r.Values[i]
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
