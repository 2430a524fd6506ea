package pdfdocx

import "strings"

// Rect represents a bounding box in page coordinates (points, origin top-left).
type Rect struct {
	X0 float64 // Left
	Y0 float64 // Top (after conversion from PDF coordinates)
	X1 float64 // Right
	Y1 float64 // Bottom (after conversion from PDF coordinates)
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// RGBA represents a color as reported by pdfium.
type RGBA struct {
	R, G, B, A uint
}

// Packed returns the color as a 24-bit packed RGB integer.
func (c RGBA) Packed() int {
	return int(c.R&0xFF)<<16 | int(c.G&0xFF)<<8 | int(c.B&0xFF)
}

// RGB is an explicit run color.
type RGB struct {
	R, G, B uint8
}

// StyleFlags is the span style bitmask. Bit positions follow the source
// format's flag encoding and must not change.
type StyleFlags int

const (
	FlagUnderline StyleFlags = 1 << 0
	FlagItalic    StyleFlags = 1 << 1
	FlagBold      StyleFlags = 1 << 4
)

// Has reports whether all bits in f are set.
func (s StyleFlags) Has(f StyleFlags) bool {
	return s&f == f
}

// Span is a run of text sharing one font, size, color and style within a line.
type Span struct {
	Text     string
	FontName string
	Size     float64    // Points
	Color    int        // 24-bit packed RGB, 0 means default
	Flags    StyleFlags // Bold, italic, underline
}

// IsBlank reports whether the span text is empty or whitespace only.
func (s Span) IsBlank() bool {
	return strings.TrimSpace(s.Text) == ""
}

// PageGeometry is the size of a source page in points.
type PageGeometry struct {
	WidthPt  float64
	HeightPt float64
}

// Margins are output page margins in points.
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// ContentKind distinguishes the content item variants.
type ContentKind int

const (
	KindText ContentKind = iota
	KindImage
)

func (k ContentKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// ContentItem is a positioned piece of page content. The only implementations
// are *TextLine and *ImageItem.
type ContentItem interface {
	Kind() ContentKind
	Position() (top, left float64)
	contentItem()
}

// TextLine is one line of text with its spans in source order.
type TextLine struct {
	Top   float64
	Left  float64
	Spans []Span
}

func (*TextLine) Kind() ContentKind { return KindText }

func (l *TextLine) Position() (float64, float64) { return l.Top, l.Left }

func (*TextLine) contentItem() {}

// AvgFontSize returns the arithmetic mean of the span sizes, or
// DefaultFontSize when the line has no spans.
func (l *TextLine) AvgFontSize() float64 {
	if len(l.Spans) == 0 {
		return DefaultFontSize
	}
	var total float64
	for _, s := range l.Spans {
		total += s.Size
	}
	return total / float64(len(l.Spans))
}

// Text returns the concatenated span text.
func (l *TextLine) Text() string {
	var result string
	for _, s := range l.Spans {
		result += s.Text
	}
	return result
}

// ImageItem is an embedded image, already re-encoded as PNG.
type ImageItem struct {
	Top       float64
	Left      float64
	WidthPt   float64
	PNG       []byte
	SourceExt string
	Mode      ColorMode
}

func (*ImageItem) Kind() ContentKind { return KindImage }

func (i *ImageItem) Position() (float64, float64) { return i.Top, i.Left }

func (*ImageItem) contentItem() {}

// Run is a styled text run ready for the document writer.
type Run struct {
	Text      string
	Font      string
	SizePt    float64
	Bold      bool
	Italic    bool
	Underline bool
	Color     *RGB // nil leaves the output format's default
}
