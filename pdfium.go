package pdfdocx

import (
	"math"
	"strings"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
)

// PDF font descriptor flags (PDF 32000-1:2008, table 123).
const (
	pdfFontItalic    = 1 << 6
	pdfFontForceBold = 1 << 18
)

// EnrichedChar represents a single character with all its metadata.
type EnrichedChar struct {
	Text       rune
	Box        Rect
	FontSize   float64
	FontWeight int
	FontName   string
	FontFlags  int
	FillColor  RGBA
}

// IsSpace reports whether the character is whitespace.
func (c EnrichedChar) IsSpace() bool {
	return c.Text == ' ' || c.Text == '\t' || c.Text == 0xA0
}

// IsLineBreak reports whether the character is a generated line break.
func (c EnrichedChar) IsLineBreak() bool {
	return c.Text == '\r' || c.Text == '\n'
}

// StyleFlags derives the span style bitmask. pdfium exposes no underline
// information, so FlagUnderline is never set here.
func (c EnrichedChar) StyleFlags() StyleFlags {
	var flags StyleFlags
	name := strings.ToLower(c.FontName)

	if c.FontWeight >= 700 || c.FontFlags&pdfFontForceBold != 0 || strings.Contains(name, "bold") {
		flags |= FlagBold
	}
	if c.FontFlags&pdfFontItalic != 0 || strings.Contains(name, "italic") || strings.Contains(name, "oblique") {
		flags |= FlagItalic
	}
	return flags
}

// pdfiumSource reads pages through a pdfium instance. It keeps at most one
// page loaded at a time.
type pdfiumSource struct {
	instance  pdfium.Pdfium
	document  references.FPDF_DOCUMENT
	pageCount int
	current   *loadedPage
}

type loadedPage struct {
	index  int
	page   references.FPDF_PAGE
	width  float64
	height float64
}

// newPDFiumSource wraps an open document.
func newPDFiumSource(instance pdfium.Pdfium, document references.FPDF_DOCUMENT) (*pdfiumSource, error) {
	pageCount, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: document,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page count")
	}

	return &pdfiumSource{
		instance:  instance,
		document:  document,
		pageCount: pageCount.PageCount,
	}, nil
}

func (s *pdfiumSource) PageCount() int {
	return s.pageCount
}

// Close releases the loaded page, if any. The document itself is owned by
// the caller.
func (s *pdfiumSource) Close() {
	if s.current == nil {
		return
	}
	s.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: s.current.page,
	})
	s.current = nil
}

// load returns the page at index, closing the previously loaded page.
func (s *pdfiumSource) load(index int) (*loadedPage, error) {
	if s.current != nil && s.current.index == index {
		return s.current, nil
	}
	if index < 0 || index >= s.pageCount {
		return nil, errors.Errorf("page index %d out of range [0, %d)", index, s.pageCount)
	}
	s.Close()

	pageResp, err := s.instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: s.document,
		Index:    index,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load page")
	}
	page := pageResp.Page

	pageWidth, err := s.instance.FPDF_GetPageWidthF(&requests.FPDF_GetPageWidthF{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		s.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{Page: page})
		return nil, errors.Wrap(err, "failed to get page width")
	}

	pageHeight, err := s.instance.FPDF_GetPageHeightF(&requests.FPDF_GetPageHeightF{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		s.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{Page: page})
		return nil, errors.Wrap(err, "failed to get page height")
	}

	s.current = &loadedPage{
		index:  index,
		page:   page,
		width:  float64(pageWidth.PageWidth),
		height: float64(pageHeight.PageHeight),
	}
	return s.current, nil
}

func (s *pdfiumSource) PageGeometry(index int) (PageGeometry, error) {
	lp, err := s.load(index)
	if err != nil {
		return PageGeometry{}, err
	}
	return PageGeometry{WidthPt: lp.width, HeightPt: lp.height}, nil
}

func (s *pdfiumSource) TextLines(index int) ([]RawLine, error) {
	lp, err := s.load(index)
	if err != nil {
		return nil, err
	}

	textPage, err := s.instance.FPDFText_LoadPage(&requests.FPDFText_LoadPage{
		Page: requests.Page{
			ByReference: &lp.page,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load text page")
	}
	defer s.instance.FPDFText_ClosePage(&requests.FPDFText_ClosePage{
		TextPage: textPage.TextPage,
	})

	charCount, err := s.instance.FPDFText_CountChars(&requests.FPDFText_CountChars{
		TextPage: textPage.TextPage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count characters")
	}
	if charCount.Count == 0 {
		return nil, nil
	}

	chars := extractEnrichedChars(s.instance, textPage.TextPage, charCount.Count, lp.height)
	return groupCharsIntoLines(chars), nil
}

// extractEnrichedChars extracts all characters with their metadata.
func extractEnrichedChars(instance pdfium.Pdfium, textPage references.FPDF_TEXTPAGE, count int, pageHeight float64) []EnrichedChar {
	chars := make([]EnrichedChar, 0, count)

	for i := 0; i < count; i++ {
		// Get Unicode character
		unicodeRes, err := instance.FPDFText_GetUnicode(&requests.FPDFText_GetUnicode{
			TextPage: textPage,
			Index:    i,
		})
		if err != nil || unicodeRes.Unicode == 0 {
			continue
		}

		char := EnrichedChar{
			Text:       rune(unicodeRes.Unicode),
			FontSize:   DefaultFontSize,
			FontWeight: 400,
		}

		// Generated line breaks carry no geometry or style.
		if char.IsLineBreak() {
			chars = append(chars, char)
			continue
		}

		// Get bounding box
		charBox, err := instance.FPDFText_GetCharBox(&requests.FPDFText_GetCharBox{
			TextPage: textPage,
			Index:    i,
		})
		if err == nil {
			// Convert PDF coordinates (origin bottom-left) to standard (origin top-left)
			char.Box = Rect{
				X0: charBox.Left,
				Y0: pageHeight - charBox.Top,
				X1: charBox.Right,
				Y1: pageHeight - charBox.Bottom,
			}
		} else if !char.IsSpace() {
			continue
		}

		fontSize, err := instance.FPDFText_GetFontSize(&requests.FPDFText_GetFontSize{
			TextPage: textPage,
			Index:    i,
		})
		if err == nil {
			char.FontSize = fontSize.FontSize
		}

		fontWeight, err := instance.FPDFText_GetFontWeight(&requests.FPDFText_GetFontWeight{
			TextPage: textPage,
			Index:    i,
		})
		if err == nil {
			char.FontWeight = fontWeight.FontWeight
		}

		fontInfo, err := instance.FPDFText_GetFontInfo(&requests.FPDFText_GetFontInfo{
			TextPage: textPage,
			Index:    i,
		})
		if err == nil {
			char.FontName = fontInfo.FontName
			char.FontFlags = fontInfo.Flags
		}

		fillColor, err := instance.FPDFText_GetFillColor(&requests.FPDFText_GetFillColor{
			TextPage: textPage,
			Index:    i,
		})
		if err == nil {
			char.FillColor = RGBA{
				R: fillColor.R,
				G: fillColor.G,
				B: fillColor.B,
				A: fillColor.A,
			}
		}

		chars = append(chars, char)
	}

	return chars
}

// groupCharsIntoLines groups characters in text order into lines, and the
// characters of each line into spans of uniform style. A line ends at a
// generated line break or when a character no longer overlaps the line
// vertically.
func groupCharsIntoLines(chars []EnrichedChar) []RawLine {
	var lines []RawLine
	var current []EnrichedChar
	var lineBox Rect
	hasBox := false

	flush := func(broken bool) {
		if hasBox {
			line := RawLine{Box: lineBox, Spans: buildSpans(current)}
			if broken {
				appendLineEndSpace(line.Spans)
			}
			lines = append(lines, line)
		}
		current = nil
		hasBox = false
	}

	for _, char := range chars {
		if char.IsLineBreak() {
			if len(current) > 0 {
				flush(true)
			}
			continue
		}

		if hasBox && !char.IsSpace() && !sameLine(lineBox, char.Box) {
			flush(true)
		}

		current = append(current, char)
		if char.IsSpace() || (char.Box.Width() <= 0 && char.Box.Height() <= 0) {
			continue
		}
		if !hasBox {
			lineBox = char.Box
			hasBox = true
		} else {
			lineBox = mergeRects(lineBox, char.Box)
		}
	}
	if len(current) > 0 {
		flush(false)
	}

	return lines
}

// sameLine reports whether box overlaps the line vertically by at least 30%
// of the smaller height.
func sameLine(line, box Rect) bool {
	overlap := math.Min(line.Y1, box.Y1) - math.Max(line.Y0, box.Y0)
	minHeight := math.Min(line.Height(), box.Height())
	if minHeight <= 0 {
		return overlap >= 0
	}
	return overlap > minHeight*0.3
}

// buildSpans merges consecutive characters sharing font, size, color and
// style flags.
func buildSpans(chars []EnrichedChar) []Span {
	var spans []Span
	var text strings.Builder
	var current Span
	open := false

	for _, char := range chars {
		span := Span{
			FontName: char.FontName,
			Size:     math.Round(char.FontSize*100) / 100,
			Color:    char.FillColor.Packed(),
			Flags:    char.StyleFlags(),
		}

		// Spaces take the style of the span they interrupt.
		if open && (char.IsSpace() || sameStyle(current, span)) {
			text.WriteRune(char.Text)
			continue
		}

		if open {
			current.Text = text.String()
			spans = append(spans, current)
			text.Reset()
		}
		current = span
		text.WriteRune(char.Text)
		open = true
	}
	if open {
		current.Text = text.String()
		spans = append(spans, current)
	}

	return spans
}

func sameStyle(a, b Span) bool {
	return a.FontName == b.FontName && a.Size == b.Size && a.Color == b.Color && a.Flags == b.Flags
}

// appendLineEndSpace keeps the last word of a line apart from the first word
// of the next line when both end up in one paragraph.
func appendLineEndSpace(spans []Span) {
	if len(spans) == 0 {
		return
	}
	last := &spans[len(spans)-1]
	if last.Text == "" || strings.HasSuffix(last.Text, " ") || strings.HasSuffix(last.Text, "-") {
		return
	}
	last.Text += " "
}
