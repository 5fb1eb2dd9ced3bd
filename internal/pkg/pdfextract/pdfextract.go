package pdfextract

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

// Extract reads the entire content of r and returns the PDF's plain text
// together with its page count. An empty reader yields ("", 0, nil).
func Extract(r io.Reader) (string, int, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	if len(b) == 0 {
		return "", 0, nil
	}
	readerAt := bytes.NewReader(b)
	pdfReader, err := pdf.NewReader(readerAt, int64(len(b)))
	if err != nil {
		return "", 0, err
	}
	pages := pdfReader.NumPage()
	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return "", 0, err
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", 0, err
	}
	return string(out), pages, nil
}
