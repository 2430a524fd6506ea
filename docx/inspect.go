package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Summary describes the body of a .docx package.
type Summary struct {
	Paragraphs    int // Paragraphs with text or an image
	Runs          int // Text runs
	Images        int
	PageBreaks    int // Explicit breaks plus nextPage section breaks
	SectionBreaks int
	Text          []string // Text of each paragraph with runs, in order
	Sections      []PageSize
}

// Verify checks that data is a readable .docx package: a zip archive with a
// content types part and a well-formed main document part.
func Verify(data []byte) error {
	_, err := Inspect(data)
	return err
}

// Inspect reads a .docx package and summarizes its body.
func Inspect(data []byte) (*Summary, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "not a zip archive")
	}

	if findFile(zr, partContentTypes) == nil {
		return nil, errors.Errorf("%s not found in archive", partContentTypes)
	}
	docFile := findFile(zr, partDocument)
	if docFile == nil {
		return nil, errors.Errorf("%s not found in archive", partDocument)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open document.xml")
	}
	defer rc.Close()

	return summarize(rc)
}

func findFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// summarize walks document.xml with a token decoder.
func summarize(r io.Reader) (*Summary, error) {
	decoder := xml.NewDecoder(r)
	summary := &Summary{}

	var (
		sawRoot     bool
		inParagraph bool
		inPPr       bool
		inText      bool
		runs        int
		drawings    int
		text        strings.Builder
		startType   string
		pgSz        PageSize
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "malformed document.xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !sawRoot {
				if t.Name.Local != "document" {
					return nil, errors.Errorf("unexpected root element %q", t.Name.Local)
				}
				sawRoot = true
			}
			switch t.Name.Local {
			case "p":
				inParagraph = true
				runs = 0
				drawings = 0
				text.Reset()
			case "pPr":
				inPPr = true
			case "t":
				inText = true
				if inParagraph {
					runs++
				}
			case "drawing":
				summary.Images++
				if inParagraph {
					drawings++
				}
			case "br":
				if attr(t, "type") == "page" {
					summary.PageBreaks++
				}
			case "sectPr":
				startType = ""
				pgSz = PageSize{}
			case "type":
				startType = attr(t, "val")
			case "pgSz":
				pgSz = PageSize{
					WidthPt:  parseTwips(attr(t, "w")),
					HeightPt: parseTwips(attr(t, "h")),
				}
			}

		case xml.CharData:
			if inText && inParagraph {
				text.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "pPr":
				inPPr = false
			case "sectPr":
				summary.Sections = append(summary.Sections, pgSz)
				if inPPr {
					summary.SectionBreaks++
				}
				if startType == "" || startType == "nextPage" {
					// The first section has no predecessor to break from.
					if len(summary.Sections) > 1 {
						summary.PageBreaks++
					}
				}
			case "p":
				if inParagraph && runs+drawings > 0 {
					summary.Paragraphs++
					summary.Runs += runs
					if runs > 0 {
						summary.Text = append(summary.Text, text.String())
					}
				}
				inParagraph = false
			}
		}
	}

	if !sawRoot {
		return nil, errors.New("document.xml is empty")
	}
	return summary, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func parseTwips(s string) float64 {
	var v int
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		v = v*10 + int(r-'0')
	}
	return float64(v) / twipsPerPoint
}
