package pdfdocx

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// PageContent is the unordered content of one page.
type PageContent struct {
	Geometry    PageGeometry
	Items       []ContentItem
	Diagnostics []Diagnostic
}

// Extractor turns page-model output into content items.
type Extractor struct {
	images ImageBounds
	logger zerolog.Logger
}

// NewExtractor creates an extractor with the given image bounds.
func NewExtractor(images ImageBounds, logger zerolog.Logger) *Extractor {
	return &Extractor{images: images, logger: logger}
}

// ExtractPage extracts all text lines and images of a zero-based page.
// Failing images are reported as diagnostics and never fail the page; an
// error is returned only when the page model itself cannot be read.
func (e *Extractor) ExtractPage(source PageSource, pageIndex int) (*PageContent, error) {
	geometry, err := source.PageGeometry(pageIndex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page geometry")
	}

	lines, err := source.TextLines(pageIndex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract text lines")
	}

	content := &PageContent{Geometry: geometry}

	for _, line := range lines {
		if len(line.Spans) == 0 {
			continue
		}
		spans := make([]Span, len(line.Spans))
		copy(spans, line.Spans)
		content.Items = append(content.Items, &TextLine{
			Top:   line.Box.Y0,
			Left:  line.Box.X0,
			Spans: spans,
		})
	}

	images, err := source.Images(pageIndex)
	if err != nil {
		// Text is still usable without images.
		e.logger.Warn().Err(err).Int("page", pageIndex+1).Msg("could not list page images")
		images = nil
	}

	for i, raw := range images {
		item, err := e.extractImage(raw)
		if err != nil {
			diag := Diagnostic{Page: pageIndex + 1, Index: i, Kind: ErrImageDecode, Err: err}
			content.Diagnostics = append(content.Diagnostics, diag)
			e.logger.Warn().
				Err(err).
				Int("page", pageIndex+1).
				Int("image", i+1).
				Str("ext", raw.Ext).
				Msg("skipping image")
			continue
		}
		content.Items = append(content.Items, item)
	}

	return content, nil
}

// extractImage resolves placement and adapts the image bytes.
func (e *Extractor) extractImage(raw RawImage) (*ImageItem, error) {
	if raw.Placement == nil {
		return nil, errors.New("no placement rectangle")
	}

	adapted, err := e.images.AdaptImage(raw.Data, raw.Placement.Width())
	if err != nil {
		return nil, err
	}

	return &ImageItem{
		Top:       raw.Placement.Y0,
		Left:      raw.Placement.X0,
		WidthPt:   adapted.WidthPt,
		PNG:       adapted.PNG,
		SourceExt: raw.Ext,
		Mode:      adapted.Mode,
	}, nil
}
