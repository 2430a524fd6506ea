package pdfdocx

import "github.com/ivanvanderbyl/pdfdocx/docx"

// docxWriter adapts a docx.Document to DocumentWriter.
type docxWriter struct {
	doc *docx.Document
}

// NewDOCXWriter returns a DocumentWriter producing a .docx package.
func NewDOCXWriter() DocumentWriter {
	return &docxWriter{doc: docx.New()}
}

func (w *docxWriter) AddPage(geometry PageGeometry, margins Margins) error {
	return w.doc.AddPage(
		docx.PageSize{WidthPt: geometry.WidthPt, HeightPt: geometry.HeightPt},
		docx.Margins{Top: margins.Top, Bottom: margins.Bottom, Left: margins.Left, Right: margins.Right},
	)
}

func (w *docxWriter) BeginParagraph() error {
	return w.doc.BeginParagraph()
}

func (w *docxWriter) AppendRun(run Run) error {
	props := docx.RunProps{
		Font:      run.Font,
		SizePt:    run.SizePt,
		Bold:      run.Bold,
		Italic:    run.Italic,
		Underline: run.Underline,
	}
	if run.Color != nil {
		props.Color = &docx.Color{R: run.Color.R, G: run.Color.G, B: run.Color.B}
	}
	return w.doc.AppendRun(run.Text, props)
}

func (w *docxWriter) AppendImage(png []byte, widthPt float64) error {
	return w.doc.AppendImage(png, widthPt)
}

func (w *docxWriter) InsertPageBreak() error {
	return w.doc.InsertPageBreak()
}

func (w *docxWriter) Finalize() ([]byte, error) {
	return w.doc.Finalize()
}
