package object

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// Upload is a validated upload ready to be written by a backend.
type Upload struct {
	Key      string
	MimeType string
	Body     io.Reader
}

// PrepareUpload sanitizes the file name, derives a namespaced key and sniffs
// the content type from the first 512 bytes without consuming them.
func PrepareUpload(userID, fileName string, r io.Reader) (Upload, error) {
	key, err := UploadKey(userID, fileName)
	if err != nil {
		return Upload{}, fmt.Errorf("upload key: %w", err)
	}

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return Upload{}, fmt.Errorf("read sniff: %w", readErr)
	}
	head := append([]byte(nil), sniff[:n]...)
	return Upload{
		Key:      key,
		MimeType: http.DetectContentType(head),
		Body:     io.MultiReader(bytes.NewReader(head), r),
	}, nil
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}
