package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeXML(data []byte) (Record, error) {
	text := strings.ToValidUTF8(string(stripBOM(data)), "")
	return Record{Kind: KindText, Text: text}, nil
}

func decodePDF(data []byte) (rec Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = Record{}
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Record{}, fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return Record{}, fmt.Errorf("pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Record{}, fmt.Errorf("pdf text: %w", err)
	}
	text := buf.String()
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	return Record{Kind: KindText, Text: text}, nil
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}
