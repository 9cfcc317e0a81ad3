// Package extract turns a remittance advice document into structured fields
// by asking an OpenAI-compatible vision model.
package extract

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/Karbon-fx/Fira-calculator/internal/model"
)

// ErrExtractionFailed is returned when the model could not confidently
// locate the fields or answered with something unusable.
var ErrExtractionFailed = errors.New("document field extraction failed")

const (
	MIMEPDF  = "application/pdf"
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
)

// Document is an uploaded payload whose MIME type was sniffed from content.
type Document struct {
	Filename string
	MIMEType string
	Data     []byte
}

// DataURI encodes the document as data:<mime>;base64,<payload>.
func (d Document) DataURI() string {
	return "data:" + d.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}

// Extractor is what the analysis pipeline needs from the extraction service.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (model.ExtractedDocumentFields, error)
}
