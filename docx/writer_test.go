package docx

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	letter  = PageSize{WidthPt: 612, HeightPt: 792}
	margins = Margins{Top: 36, Bottom: 36, Left: 54, Right: 54}
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(content)
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestDocument_ParagraphsAndRuns(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddPage(letter, margins))
	require.NoError(t, doc.BeginParagraph())
	require.NoError(t, doc.AppendRun("Hello ", RunProps{Font: "Arial", SizePt: 12}))
	require.NoError(t, doc.AppendRun("world", RunProps{Font: "Arial", SizePt: 12, Bold: true}))
	require.NoError(t, doc.BeginParagraph())
	require.NoError(t, doc.AppendRun("Second", RunProps{SizePt: 10.5}))

	data, err := doc.Finalize()
	require.NoError(t, err)

	summary, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Paragraphs)
	assert.Equal(t, 3, summary.Runs)
	assert.Equal(t, []string{"Hello world", "Second"}, summary.Text)
	assert.Equal(t, 0, summary.PageBreaks)
	assert.Equal(t, []PageSize{letter}, summary.Sections)
}

func TestDocument_RunProperties(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddPage(letter, margins))
	require.NoError(t, doc.BeginParagraph())
	require.NoError(t, doc.AppendRun("styled", RunProps{
		Font:      "Times New Roman",
		SizePt:    11,
		Bold:      true,
		Italic:    true,
		Underline: true,
		Color:     &Color{R: 0xFF, G: 0x00, B: 0x80},
	}))

	data, err := doc.Finalize()
	require.NoError(t, err)

	body := readPart(t, data, partDocument)
	assert.Contains(t, body, `<w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman" w:cs="Times New Roman"/>`)
	assert.Contains(t, body, `<w:b/>`)
	assert.Contains(t, body, `<w:i/>`)
	assert.Contains(t, body, `<w:color w:val="FF0080"/>`)
	assert.Contains(t, body, `<w:sz w:val="22"/>`)
	assert.Contains(t, body, `<w:u w:val="single"/>`)
	assert.Contains(t, body, `<w:pgMar w:top="720" w:right="1080" w:bottom="720" w:left="1080"`)
}

func TestDocument_EscapesText(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddPage(letter, margins))
	require.NoError(t, doc.BeginParagraph())
	require.NoError(t, doc.AppendRun(`a < b & "c" > d`, RunProps{SizePt: 11}))

	data, err := doc.Finalize()
	require.NoError(t, err)

	summary, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, []string{`a < b & "c" > d`}, summary.Text)
}

func TestDocument_PageBreaks(t *testing.T) {
	doc := New()
	for i := 0; i < 3; i++ {
		if i > 0 {
			require.NoError(t, doc.InsertPageBreak())
		}
		require.NoError(t, doc.AddPage(letter, margins))
		require.NoError(t, doc.BeginParagraph())
		require.NoError(t, doc.AppendRun("page", RunProps{SizePt: 11}))
	}

	data, err := doc.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Pages())
	assert.Equal(t, 2, doc.PageBreaks())
	assert.Equal(t, 0, doc.SectionBreaks())

	summary, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.PageBreaks)
	assert.Equal(t, 3, summary.Paragraphs)
}

func TestDocument_GeometryChangeStartsSection(t *testing.T) {
	landscape := PageSize{WidthPt: 792, HeightPt: 612}

	doc := New()
	require.NoError(t, doc.AddPage(letter, margins))
	require.NoError(t, doc.InsertPageBreak())
	require.NoError(t, doc.AddPage(landscape, margins))
	require.NoError(t, doc.InsertPageBreak())
	require.NoError(t, doc.AddPage(letter, margins))

	data, err := doc.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 2, doc.SectionBreaks())
	assert.Equal(t, 2, doc.PageBreaks())

	summary, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, []PageSize{letter, landscape, letter}, summary.Sections)
	assert.Equal(t, 2, summary.SectionBreaks)
	assert.Equal(t, 2, summary.PageBreaks)

	body := readPart(t, data, partDocument)
	assert.Contains(t, body, `<w:type w:val="nextPage"/>`)
	assert.Contains(t, body, `w:orient="landscape"`)
}

func TestDocument_GeometryChangeWithoutBreakIsContinuous(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddPage(letter, margins))
	require.NoError(t, doc.AddPage(PageSize{WidthPt: 595, HeightPt: 842}, margins))

	data, err := doc.Finalize()
	require.NoError(t, err)

	summary, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.PageBreaks)
	assert.Equal(t, 1, summary.SectionBreaks)
	assert.Contains(t, readPart(t, data, partDocument), `<w:type w:val="continuous"/>`)
}

func TestDocument_Images(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddPage(letter, margins))
	require.NoError(t, doc.BeginParagraph())
	require.NoError(t, doc.AppendImage(testPNG(t, 200, 100), 144))
	require.NoError(t, doc.BeginParagraph())
	require.NoError(t, doc.AppendImage(testPNG(t, 10, 10), 36))

	data, err := doc.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Images())

	summary, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Images)
	assert.Equal(t, 2, summary.Paragraphs)
	assert.Empty(t, summary.Text)

	body := readPart(t, data, partDocument)
	// 144pt wide at 2:1 is 1828800 x 914400 EMU.
	assert.Contains(t, body, `<wp:extent cx="1828800" cy="914400"/>`)
	assert.Contains(t, body, `r:embed="rIdImage1"`)
	assert.Contains(t, body, `r:embed="rIdImage2"`)

	rels := readPart(t, data, partDocumentRels)
	assert.Contains(t, rels, `Target="media/image2.png"`)
	assert.NotEmpty(t, readPart(t, data, "word/media/image1.png"))
}

func TestDocument_Errors(t *testing.T) {
	doc := New()
	assert.ErrorIs(t, doc.BeginParagraph(), ErrNoPage)
	assert.Error(t, doc.AddPage(PageSize{}, margins))

	require.NoError(t, doc.AddPage(letter, margins))
	assert.ErrorIs(t, doc.AppendRun("x", RunProps{SizePt: 11}), ErrNoParagraph)
	assert.ErrorIs(t, doc.AppendImage(testPNG(t, 1, 1), 36), ErrNoParagraph)

	require.NoError(t, doc.BeginParagraph())
	assert.Error(t, doc.AppendRun("x", RunProps{SizePt: 0}))
	assert.Error(t, doc.AppendImage([]byte("not a png"), 36))
	assert.Error(t, doc.AppendImage(testPNG(t, 1, 1), 0))
	assert.Equal(t, 0, doc.Images())

	_, err := doc.Finalize()
	require.NoError(t, err)
	_, err = doc.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, doc.InsertPageBreak(), ErrFinalized)
}

func TestDocument_EmptyDocument(t *testing.T) {
	data, err := New().Finalize()
	require.NoError(t, err)

	summary, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Paragraphs)
	assert.Equal(t, []PageSize{{WidthPt: 612, HeightPt: 792}}, summary.Sections)
}

func TestDocument_PackageParts(t *testing.T) {
	doc := New()
	doc.Creator = "tester"
	require.NoError(t, doc.AddPage(letter, margins))

	data, err := doc.Finalize()
	require.NoError(t, err)

	assert.Contains(t, readPart(t, data, partContentTypes), `Extension="png"`)
	assert.Contains(t, readPart(t, data, partRootRels), `Target="word/document.xml"`)
	assert.Contains(t, readPart(t, data, partStyles), `w:ascii="Calibri"`)
	assert.Contains(t, readPart(t, data, partCore), `<dc:creator>tester</dc:creator>`)
}

func TestVerify(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddPage(letter, margins))
	data, err := doc.Finalize()
	require.NoError(t, err)
	assert.NoError(t, Verify(data))

	assert.Error(t, Verify([]byte("not a zip")))
	assert.Error(t, Verify(nil))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(partContentTypes)
	require.NoError(t, err)
	_, err = w.Write([]byte(contentTypesXML()))
	require.NoError(t, err)
	w, err = zw.Create(partDocument)
	require.NoError(t, err)
	_, err = io.Copy(w, strings.NewReader(`<w:document><w:body><w:p>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	err = Verify(buf.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}
