package extract

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"sales.csv":         FormatCSV,
		"Q3.XLSX":           FormatXLSX,
		"legacy.report.xls": FormatXLS,
		"feed.xml":          FormatXML,
		" scan.Pdf ":        FormatPDF,
	}
	for name, want := range cases {
		got, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func TestParseFormatRejectsUnknown(t *testing.T) {
	for _, name := range []string{"notes.docx", "archive.csv.zip", "README", ""} {
		if _, err := ParseFormat(name); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("%q: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
}
