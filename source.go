package pdfdocx

// PageSource is the read-only page model the converter consumes. Page indices
// are zero-based.
type PageSource interface {
	PageCount() int
	PageGeometry(page int) (PageGeometry, error)
	TextLines(page int) ([]RawLine, error)
	Images(page int) ([]RawImage, error)
}

// RawLine is a text line as reported by the page model.
type RawLine struct {
	Box   Rect
	Spans []Span
}

// RawImage is an embedded image as reported by the page model.
type RawImage struct {
	Placement *Rect // nil when no placement rectangle could be resolved
	Data      []byte
	Ext       string // Source encoding, e.g. "jpeg" or "png"
}

// DocumentWriter is the write-only flowing-document sink.
type DocumentWriter interface {
	AddPage(geometry PageGeometry, margins Margins) error
	BeginParagraph() error
	AppendRun(run Run) error
	AppendImage(png []byte, widthPt float64) error
	InsertPageBreak() error
	Finalize() ([]byte, error)
}
