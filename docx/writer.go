// Package docx writes flowing WordprocessingML (.docx) documents built from
// paragraphs, styled runs, inline PNG images and page breaks.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image/png"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Unit conversions
const (
	twipsPerPoint = 20
	emuPerPoint   = 12700
)

// Defaults used when no page has been added.
const (
	DefaultFont     = "Calibri"
	DefaultFontSize = 11.0
)

var (
	// ErrNoParagraph is returned when content is appended before BeginParagraph.
	ErrNoParagraph = errors.New("no open paragraph")
	// ErrNoPage is returned when content is written before AddPage.
	ErrNoPage = errors.New("no page added")
	// ErrFinalized is returned when the document is used after Finalize.
	ErrFinalized = errors.New("document already finalized")
)

// PageSize is a page size in points.
type PageSize struct {
	WidthPt  float64
	HeightPt float64
}

// Margins are page margins in points.
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Color is an explicit RGB run color.
type Color struct {
	R, G, B uint8
}

// Hex returns the color as RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// RunProps are the character properties of a run.
type RunProps struct {
	Font      string
	SizePt    float64
	Bold      bool
	Italic    bool
	Underline bool
	Color     *Color // nil leaves the default color
}

// section is a run of pages sharing one geometry.
type section struct {
	size      PageSize
	margins   Margins
	startType string // "", "nextPage" or "continuous"
}

func (s section) sameLayout(o section) bool {
	return s.size == o.size && s.margins == o.margins
}

// Document accumulates body content and serializes it as a .docx package.
// A Document is not safe for concurrent use.
type Document struct {
	Creator string
	Created time.Time

	body      bytes.Buffer
	paragraph *strings.Builder
	section   *section
	pending   bool // a page break waits for the next page
	media     [][]byte
	finalized bool

	pageBreaks    int
	sectionBreaks int
	pages         int
}

// New creates an empty document.
func New() *Document {
	return &Document{
		Creator: "pdfdocx",
		Created: time.Now(),
	}
}

// Pages returns the number of pages added.
func (d *Document) Pages() int {
	return d.pages
}

// PageBreaks returns the number of page boundaries written, counting both
// explicit breaks and section breaks that start a new page.
func (d *Document) PageBreaks() int {
	return d.pageBreaks
}

// SectionBreaks returns the number of section breaks written.
func (d *Document) SectionBreaks() int {
	return d.sectionBreaks
}

// Images returns the number of embedded images.
func (d *Document) Images() int {
	return len(d.media)
}

// AddPage starts a page with the given geometry. Consecutive pages with the
// same geometry share a section; a change of geometry closes the current
// section. A pending page break becomes the section break in that case.
func (d *Document) AddPage(size PageSize, margins Margins) error {
	if d.finalized {
		return ErrFinalized
	}
	if size.WidthPt <= 0 || size.HeightPt <= 0 {
		return errors.Errorf("invalid page size %.2fx%.2f", size.WidthPt, size.HeightPt)
	}

	d.closeParagraph()
	next := section{size: size, margins: margins}

	switch {
	case d.section == nil:
		// First page.
	case d.section.sameLayout(next):
		if d.pending {
			d.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
			d.pageBreaks++
		}
		next = *d.section
	default:
		if d.pending {
			next.startType = "nextPage"
			d.pageBreaks++
		} else {
			next.startType = "continuous"
		}
		d.body.WriteString(`<w:p><w:pPr>`)
		d.body.WriteString(sectPrXML(*d.section))
		d.body.WriteString(`</w:pPr></w:p>`)
		d.sectionBreaks++
	}

	d.section = &next
	d.pending = false
	d.pages++
	return nil
}

// BeginParagraph closes the current paragraph, if any, and opens a new one.
func (d *Document) BeginParagraph() error {
	if err := d.writable(); err != nil {
		return err
	}
	d.closeParagraph()
	d.paragraph = &strings.Builder{}
	return nil
}

// AppendRun appends a styled text run to the open paragraph.
func (d *Document) AppendRun(text string, props RunProps) error {
	if err := d.writable(); err != nil {
		return err
	}
	if d.paragraph == nil {
		return ErrNoParagraph
	}
	if props.SizePt <= 0 || math.IsNaN(props.SizePt) {
		return errors.Errorf("invalid font size %v", props.SizePt)
	}

	p := d.paragraph
	p.WriteString(`<w:r>`)
	p.WriteString(runPropsXML(props))
	p.WriteString(`<w:t xml:space="preserve">`)
	p.WriteString(escape(text))
	p.WriteString(`</w:t></w:r>`)
	return nil
}

// AppendImage embeds a PNG image inline in the open paragraph, scaled to
// widthPt with its aspect ratio preserved.
func (d *Document) AppendImage(data []byte, widthPt float64) error {
	if err := d.writable(); err != nil {
		return err
	}
	if d.paragraph == nil {
		return ErrNoParagraph
	}
	if widthPt <= 0 || math.IsNaN(widthPt) || math.IsInf(widthPt, 0) {
		return errors.Errorf("invalid image width %v", widthPt)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "image is not a valid PNG")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.Errorf("image has invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}

	d.media = append(d.media, data)
	n := len(d.media)

	cx := int64(math.Round(widthPt * emuPerPoint))
	cy := int64(math.Round(float64(cx) * float64(cfg.Height) / float64(cfg.Width)))
	if cy < 1 {
		cy = 1
	}

	d.paragraph.WriteString(`<w:r>`)
	d.paragraph.WriteString(inlineImageXML(n, cx, cy))
	d.paragraph.WriteString(`</w:r>`)
	return nil
}

// InsertPageBreak ends the current page. The break is written when the next
// page is added, or at Finalize if no page follows.
func (d *Document) InsertPageBreak() error {
	if err := d.writable(); err != nil {
		return err
	}
	d.closeParagraph()
	if d.pending {
		// Two breaks in a row produce an empty page.
		d.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		d.pageBreaks++
	}
	d.pending = true
	return nil
}

// Finalize closes the document and returns the .docx package bytes.
func (d *Document) Finalize() ([]byte, error) {
	if d.finalized {
		return nil, ErrFinalized
	}
	d.closeParagraph()
	if d.pending {
		d.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		d.pageBreaks++
		d.pending = false
	}

	last := section{
		size:    PageSize{WidthPt: 612, HeightPt: 792},
		margins: Margins{Top: 72, Bottom: 72, Left: 72, Right: 72},
	}
	if d.section != nil {
		last = *d.section
	}

	var doc strings.Builder
	doc.WriteString(documentOpen())
	doc.Write(d.body.Bytes())
	doc.WriteString(sectPrXML(last))
	doc.WriteString(documentClose)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		data []byte
	}{
		{partContentTypes, []byte(contentTypesXML())},
		{partRootRels, []byte(rootRelsXML())},
		{partDocument, []byte(doc.String())},
		{partDocumentRels, []byte(documentRelsXML(len(d.media)))},
		{partStyles, []byte(stylesXML(DefaultFont, halfPoints(DefaultFontSize)))},
		{partCore, []byte(coreXML(d.Creator, d.Created))},
	}
	for i, img := range d.media {
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/media/" + imageName(i+1), img})
	}

	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create %s", part.name)
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", part.name)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close package")
	}

	d.finalized = true
	return buf.Bytes(), nil
}

func (d *Document) writable() error {
	if d.finalized {
		return ErrFinalized
	}
	if d.section == nil {
		return ErrNoPage
	}
	return nil
}

func (d *Document) closeParagraph() {
	if d.paragraph == nil {
		return
	}
	d.body.WriteString(`<w:p>`)
	d.body.WriteString(d.paragraph.String())
	d.body.WriteString(`</w:p>`)
	d.paragraph = nil
}

func halfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

func twips(pt float64) int {
	return int(math.Round(pt * twipsPerPoint))
}

func runPropsXML(props RunProps) string {
	var b strings.Builder
	b.WriteString(`<w:rPr>`)
	if props.Font != "" {
		f := escape(props.Font)
		fmt.Fprintf(&b, `<w:rFonts w:ascii="%s" w:hAnsi="%s" w:cs="%s"/>`, f, f, f)
	}
	if props.Bold {
		b.WriteString(`<w:b/>`)
	}
	if props.Italic {
		b.WriteString(`<w:i/>`)
	}
	if props.Color != nil {
		fmt.Fprintf(&b, `<w:color w:val="%s"/>`, props.Color.Hex())
	}
	hp := halfPoints(props.SizePt)
	fmt.Fprintf(&b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, hp, hp)
	if props.Underline {
		b.WriteString(`<w:u w:val="single"/>`)
	}
	b.WriteString(`</w:rPr>`)
	return b.String()
}

func sectPrXML(s section) string {
	var b strings.Builder
	b.WriteString(`<w:sectPr>`)
	if s.startType != "" {
		fmt.Fprintf(&b, `<w:type w:val="%s"/>`, s.startType)
	}
	orient := ""
	if s.size.WidthPt > s.size.HeightPt {
		orient = ` w:orient="landscape"`
	}
	fmt.Fprintf(&b, `<w:pgSz w:w="%d" w:h="%d"%s/>`, twips(s.size.WidthPt), twips(s.size.HeightPt), orient)
	fmt.Fprintf(&b, `<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/>`,
		twips(s.margins.Top), twips(s.margins.Right), twips(s.margins.Bottom), twips(s.margins.Left))
	b.WriteString(`</w:sectPr>`)
	return b.String()
}

func inlineImageXML(n int, cx, cy int64) string {
	name := imageName(n)
	return fmt.Sprintf(`<w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%[1]d" cy="%[2]d"/>`+
		`<wp:docPr id="%[3]d" name="Picture %[3]d"/>`+
		`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`+
		`<a:graphic><a:graphicData uri="%[4]s">`+
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="%[3]d" name="%[5]s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%[6]s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[2]d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr></pic:pic>`+
		`</a:graphicData></a:graphic></wp:inline></w:drawing>`,
		cx, cy, n, nsPic, name, imageRelID(n))
}
