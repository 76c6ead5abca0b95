package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a supported upload format, named by its file extension.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatXML  Format = "xml"
	FormatPDF  Format = "pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyInput        = errors.New("document has no extractable content")
	ErrDecode            = errors.New("document could not be decoded")
	ErrTooLarge          = errors.New("document exceeds the size limit")
)

// SupportedFormats lists accepted formats in display order.
func SupportedFormats() []Format {
	return []Format{FormatCSV, FormatXLSX, FormatXLS, FormatXML, FormatPDF}
}

// ParseFormat takes the final dot segment of fileName, case-insensitively.
func ParseFormat(fileName string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(fileName)), "."))
	for _, f := range SupportedFormats() {
		if Format(ext) == f {
			return f, nil
		}
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, fileName)
	}
	return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
}
