// Package extract turns uploaded résumé documents into raw text.
//
// Extraction never fails hard: unreadable, empty or unsupported documents
// produce empty text and a Result.Err describing why.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Kind is the detected document format.
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindText    Kind = "text"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZip  = "application/zip"
	mimeText = "text/plain"
)

var (
	// ErrEmptyDocument is reported for a zero-length document.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrNoText is reported when a document parsed but has no text layer.
	ErrNoText = errors.New("no text content found in document")
	// ErrUnsupported is reported for formats other than pdf, docx and plain text.
	ErrUnsupported = errors.New("unsupported document type")
)

// Result is the outcome of a single extraction pass.
type Result struct {
	Text  string
	Kind  Kind
	MIME  string
	Pages int
	Err   error
}

// Empty reports whether the extraction produced no usable text.
func (r Result) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// Extractor reads text out of pdf, docx and plain text documents.
type Extractor struct {
	logger *zap.Logger
}

// New creates an Extractor. A nil logger is replaced by a no-op one.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract returns the text of the document, or an empty string when nothing
// could be extracted.
func (e *Extractor) Extract(document []byte) string {
	return e.Inspect(document).Text
}

// Inspect extracts the document text and reports the detected kind, page count
// and the reason when no text was found.
func (e *Extractor) Inspect(document []byte) Result {
	if len(document) == 0 {
		return Result{Kind: KindUnknown, Err: ErrEmptyDocument}
	}

	mtype := mimetype.Detect(document)
	res := Result{Kind: KindUnknown, MIME: mtype.String()}

	switch {
	case mtype.Is(mimePDF):
		res.Kind = KindPDF
		res.Text, res.Pages, res.Err = extractPDF(document, e.logger)
	case mtype.Is(mimeDOCX), mtype.Is(mimeZip):
		res.Kind = KindDOCX
		res.Text, res.Err = extractDOCX(document)
	case isText(mtype):
		res.Kind = KindText
		res.Text = string(document)
	default:
		res.Err = fmt.Errorf("%w: %s", ErrUnsupported, mtype.String())
	}

	if res.Err != nil {
		res.Text = ""
	} else if res.Empty() {
		res.Err = ErrNoText
	}

	e.logger.Debug("document extracted",
		zap.String("kind", string(res.Kind)),
		zap.String("mime", res.MIME),
		zap.Int("pages", res.Pages),
		zap.Int("text_length", len(res.Text)),
		zap.Error(res.Err),
	)

	return res
}

// isText accepts text/plain and every format detected as its descendant (csv, html, ...).
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is(mimeText) {
			return true
		}
	}
	return false
}
