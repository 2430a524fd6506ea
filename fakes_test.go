package pdfdocx

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var letter = PageGeometry{WidthPt: 612, HeightPt: 792}

type fakePage struct {
	geometry  PageGeometry
	lines     []RawLine
	images    []RawImage
	linesErr  error
	imagesErr error
}

// fakeSource is an in-memory PageSource.
type fakeSource struct {
	pages []fakePage
}

func (s *fakeSource) page(i int) (*fakePage, error) {
	if i < 0 || i >= len(s.pages) {
		return nil, errors.Errorf("page %d out of range", i)
	}
	return &s.pages[i], nil
}

func (s *fakeSource) PageCount() int { return len(s.pages) }

func (s *fakeSource) PageGeometry(i int) (PageGeometry, error) {
	p, err := s.page(i)
	if err != nil {
		return PageGeometry{}, err
	}
	return p.geometry, nil
}

func (s *fakeSource) TextLines(i int) ([]RawLine, error) {
	p, err := s.page(i)
	if err != nil {
		return nil, err
	}
	return p.lines, p.linesErr
}

func (s *fakeSource) Images(i int) ([]RawImage, error) {
	p, err := s.page(i)
	if err != nil {
		return nil, err
	}
	return p.images, p.imagesErr
}

type writerOp struct {
	kind     string
	geometry PageGeometry
	margins  Margins
	run      Run
	widthPt  float64
}

// recordingWriter records every DocumentWriter call. A non-empty failOn
// makes the named operation fail.
type recordingWriter struct {
	ops    []writerOp
	failOn string
}

var errWriterFailure = errors.New("writer failure")

func (w *recordingWriter) record(op writerOp) error {
	w.ops = append(w.ops, op)
	if op.kind == w.failOn {
		return errWriterFailure
	}
	return nil
}

func (w *recordingWriter) AddPage(geometry PageGeometry, margins Margins) error {
	return w.record(writerOp{kind: "page", geometry: geometry, margins: margins})
}

func (w *recordingWriter) BeginParagraph() error {
	return w.record(writerOp{kind: "paragraph"})
}

func (w *recordingWriter) AppendRun(run Run) error {
	return w.record(writerOp{kind: "run", run: run})
}

func (w *recordingWriter) AppendImage(png []byte, widthPt float64) error {
	return w.record(writerOp{kind: "image", widthPt: widthPt})
}

func (w *recordingWriter) InsertPageBreak() error {
	return w.record(writerOp{kind: "break"})
}

func (w *recordingWriter) Finalize() ([]byte, error) {
	if err := w.record(writerOp{kind: "finalize"}); err != nil {
		return nil, err
	}
	return []byte("document"), nil
}

func (w *recordingWriter) count(kind string) int {
	n := 0
	for _, op := range w.ops {
		if op.kind == kind {
			n++
		}
	}
	return n
}

// kinds returns the op kinds in order.
func (w *recordingWriter) kinds() []string {
	kinds := make([]string, len(w.ops))
	for i, op := range w.ops {
		kinds[i] = op.kind
	}
	return kinds
}

func rawLine(top, left float64, spans ...Span) RawLine {
	return RawLine{
		Box:   Rect{X0: left, Y0: top, X1: left + 200, Y1: top + 10},
		Spans: spans,
	}
}

func span(text string, size float64) Span {
	return Span{Text: text, FontName: "ArialMT", Size: size}
}

func placement(top, left, width float64) *Rect {
	return &Rect{X0: left, Y0: top, X1: left + width, Y1: top + width}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func opaquePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 0xFF})
		}
	}
	return encodePNG(t, img)
}

func transparentPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0x80})
	return encodePNG(t, img)
}

func palettedPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	palette := color.Palette{color.Black, color.White}
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette)
	img.SetColorIndex(0, 0, 1)
	return encodePNG(t, img)
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}
