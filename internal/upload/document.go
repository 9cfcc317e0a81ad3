// Package upload validates uploaded remittance documents before extraction.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Karbon-fx/Fira-calculator/internal/extract"
)

const (
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	CodeFileReadError       = "FILE_READ_ERROR"
)

// Error is a rejected upload. Code is one of the Code* constants.
type Error struct {
	Code   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var allowedTypes = []string{extract.MIMEPDF, extract.MIMEPNG, extract.MIMEJPEG}

// ReadDocument reads a multipart file, enforcing maxBytes and the PDF/PNG/JPEG
// allow-list on the sniffed content type. The client-declared type is ignored.
func ReadDocument(fh *multipart.FileHeader, maxBytes int64) (extract.Document, error) {
	if fh.Size > maxBytes {
		return extract.Document{}, &Error{Code: CodeFileTooLarge, Reason: fmt.Sprintf("file is %d bytes, limit is %d", fh.Size, maxBytes)}
	}
	f, err := fh.Open()
	if err != nil {
		return extract.Document{}, &Error{Code: CodeFileReadError, Reason: "cannot open upload", Err: err}
	}
	defer f.Close()

	return Read(f, fh.Filename, maxBytes)
}

// Read validates a document from any reader.
func Read(r io.Reader, filename string, maxBytes int64) (extract.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return extract.Document{}, &Error{Code: CodeFileReadError, Reason: "cannot read upload", Err: err}
	}
	if len(data) == 0 {
		return extract.Document{}, &Error{Code: CodeFileReadError, Reason: "file is empty"}
	}
	if int64(len(data)) > maxBytes {
		return extract.Document{}, &Error{Code: CodeFileTooLarge, Reason: fmt.Sprintf("file exceeds %d bytes", maxBytes)}
	}

	mt, err := mimetype.DetectReader(bytes.NewReader(data))
	if err != nil {
		return extract.Document{}, &Error{Code: CodeFileReadError, Reason: "cannot detect file type", Err: err}
	}
	detected := ""
	for _, allowed := range allowedTypes {
		if mt.Is(allowed) {
			detected = allowed
			break
		}
	}
	if detected == "" {
		return extract.Document{}, &Error{Code: CodeUnsupportedFileType, Reason: fmt.Sprintf("detected type %s is not PDF, PNG or JPEG", mt.String())}
	}

	return extract.Document{Filename: filename, MIMEType: detected, Data: data}, nil
}
