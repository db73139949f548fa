package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"coa-backend/internal/shared/storage/object"
)

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic)
}

// TextFromPDF returns the plain text layer of a PDF. Scanned documents usually
// yield little or nothing.
func TextFromPDF(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !IsPDF(data) {
		return "", fmt.Errorf("not a pdf")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// saveExtracted keeps a derived .extracted.txt copy next to the upload.
func saveExtracted(ctx context.Context, store object.ObjectStore, uploadKey, text string) error {
	_, err := store.SaveWithKey(ctx, object.ExtractedTextKey(uploadKey), "text/plain; charset=utf-8", strings.NewReader(text))
	return err
}
