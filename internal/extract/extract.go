package extract

import (
	"context"
	"fmt"
	"io"

	"report-backend/internal/shared/storage/object"
)

type decoder func(data []byte) (Record, error)

var decoders = map[Format]decoder{
	FormatCSV:  decodeCSV,
	FormatXLSX: decodeXLSX,
	FormatXLS:  decodeXLS,
	FormatXML:  decodeXML,
	FormatPDF:  decodePDF,
}

// Load decodes data according to format. Records without rows or text fail with ErrEmptyInput.
func Load(ctx context.Context, format Format, data []byte) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	decode, ok := decoders[format]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	rec, err := decode(data)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %w", ErrDecode, format, err)
	}
	if rec.empty() {
		return Record{}, ErrEmptyInput
	}
	return rec, nil
}

// LoadObject reads a staged object and decodes it. At most maxBytes are read when maxBytes > 0.
func LoadObject(ctx context.Context, store object.ObjectStore, key string, format Format, maxBytes int64) (Record, []byte, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return Record{}, nil, fmt.Errorf("open staged object: %w", err)
	}
	defer body.Close()

	var r io.Reader = body
	if maxBytes > 0 {
		r = io.LimitReader(body, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Record{}, nil, fmt.Errorf("read staged object: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Record{}, nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, maxBytes)
	}
	rec, err := Load(ctx, format, data)
	return rec, data, err
}

func (r Record) empty() bool {
	switch r.Kind {
	case KindTable:
		return r.Table == nil || len(r.Table.Rows) == 0
	case KindText:
		return len(trimSpace(r.Text)) == 0
	default:
		return true
	}
}
