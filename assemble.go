package pdfdocx

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// AssemblyState is the page assembler's position in a conversion.
type AssemblyState int

const (
	StateBeforePage AssemblyState = iota
	StateExtractingContent
	StateSequencing
	StateEmitting
	StatePageDone
	StateDocumentDone
)

func (s AssemblyState) String() string {
	switch s {
	case StateBeforePage:
		return "before-page"
	case StateExtractingContent:
		return "extracting-content"
	case StateSequencing:
		return "sequencing"
	case StateEmitting:
		return "emitting"
	case StatePageDone:
		return "page-done"
	case StateDocumentDone:
		return "document-done"
	}
	return "unknown"
}

// Report describes a finished conversion.
type Report struct {
	Metrics     ProcessingMetrics
	Diagnostics []Diagnostic
}

// Assembler drives extraction, sequencing, segmentation and emission for
// each page in turn and writes the result to a DocumentWriter. An Assembler
// serves a single conversion.
type Assembler struct {
	source    PageSource
	writer    DocumentWriter
	extractor *Extractor
	rule      SegmentRule
	margins   Margins
	breaks    bool
	logger    zerolog.Logger

	state        AssemblyState
	onTransition func(page int, state AssemblyState)
	report       Report
}

// NewAssembler creates an assembler reading from source and writing to writer.
func NewAssembler(source PageSource, writer DocumentWriter, config Config, logger zerolog.Logger) *Assembler {
	return &Assembler{
		source:    source,
		writer:    writer,
		extractor: NewExtractor(config.ImageBounds(), logger),
		rule:      config.SegmentRule(),
		margins:   config.PageMargins(),
		breaks:    config.IncludePageBreaks,
		logger:    logger,
	}
}

// OnTransition registers a callback invoked on every state change.
func (a *Assembler) OnTransition(fn func(page int, state AssemblyState)) {
	a.onTransition = fn
}

// State returns the current state.
func (a *Assembler) State() AssemblyState {
	return a.state
}

// Report returns metrics and diagnostics gathered so far.
func (a *Assembler) Report() Report {
	return a.report
}

func (a *Assembler) transition(page int, state AssemblyState) {
	a.state = state
	if a.onTransition != nil {
		a.onTransition(page, state)
	}
}

// Assemble converts the zero-based pages in order and returns the finalized
// document. A page break follows every page but the last. The context is
// checked between pages only.
func (a *Assembler) Assemble(ctx context.Context, pages []int) ([]byte, error) {
	start := time.Now()

	for n, pageIndex := range pages {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "conversion cancelled")
		}

		pageStart := time.Now()
		if err := a.assemblePage(pageIndex); err != nil {
			return nil, err
		}

		if a.breaks && n < len(pages)-1 {
			if err := a.writer.InsertPageBreak(); err != nil {
				return nil, newConversionError(ErrAssembly, err, "failed to insert page break")
			}
			a.report.Metrics.Statistics.PageBreaks++
		}

		duration := time.Since(pageStart)
		a.report.Metrics.PageExtractions = append(a.report.Metrics.PageExtractions, PageMetrics{
			PageNumber: pageIndex + 1,
			Duration:   duration,
		})
		a.logger.Debug().
			Int("page", pageIndex+1).
			Int("of", len(pages)).
			Dur("duration", duration).
			Msg("page assembled")
	}

	data, err := a.writer.Finalize()
	if err != nil {
		return nil, newConversionError(ErrAssembly, err, "failed to finalize document")
	}

	a.report.Metrics.TotalTime = time.Since(start)
	a.transition(len(pages), StateDocumentDone)

	return data, nil
}

// assemblePage runs one page through the pipeline.
func (a *Assembler) assemblePage(pageIndex int) error {
	pageNumber := pageIndex + 1
	a.transition(pageNumber, StateBeforePage)

	a.transition(pageNumber, StateExtractingContent)
	content, err := a.extractor.ExtractPage(a.source, pageIndex)
	if err != nil {
		return newConversionError(ErrUnreadableSource, err, "failed to extract page %d", pageNumber)
	}
	a.report.Diagnostics = append(a.report.Diagnostics, content.Diagnostics...)
	a.report.Metrics.Statistics.DroppedImages += len(content.Diagnostics)

	if err := a.writer.AddPage(content.Geometry, a.margins); err != nil {
		return newConversionError(ErrAssembly, err, "failed to add page %d", pageNumber)
	}
	a.report.Metrics.Statistics.TotalPages++

	a.transition(pageNumber, StateSequencing)
	items := SequenceItems(content.Items)

	a.transition(pageNumber, StateEmitting)
	for _, segment := range a.rule.SegmentItems(items) {
		if segment.Image != nil {
			if err := a.emitImage(pageNumber, segment.Image); err != nil {
				return err
			}
			continue
		}
		if err := a.emitParagraph(segment.Lines); err != nil {
			return err
		}
	}

	a.transition(pageNumber, StatePageDone)
	return nil
}

// emitParagraph writes one paragraph with a run per non-empty span.
func (a *Assembler) emitParagraph(lines []*TextLine) error {
	if err := a.writer.BeginParagraph(); err != nil {
		return newConversionError(ErrAssembly, err, "failed to begin paragraph")
	}
	a.report.Metrics.Statistics.TotalParagraphs++

	for _, line := range lines {
		for _, span := range line.Spans {
			run, ok := StyleRun(span)
			if !ok {
				continue
			}
			if err := a.writer.AppendRun(run); err != nil {
				return newConversionError(ErrAssembly, err, "failed to append run")
			}
			a.report.Metrics.Statistics.TotalRuns++
			a.report.Metrics.Statistics.TotalCharacters += len([]rune(run.Text))
		}
	}
	return nil
}

// emitImage writes an image in its own paragraph. Embedding failures are
// recorded and skipped.
func (a *Assembler) emitImage(pageNumber int, img *ImageItem) error {
	if err := a.writer.BeginParagraph(); err != nil {
		return newConversionError(ErrAssembly, err, "failed to begin image paragraph")
	}

	if err := a.writer.AppendImage(img.PNG, img.WidthPt); err != nil {
		diag := Diagnostic{Page: pageNumber, Index: a.report.Metrics.Statistics.TotalImages, Kind: ErrImageEmbed, Err: err}
		a.report.Diagnostics = append(a.report.Diagnostics, diag)
		a.report.Metrics.Statistics.DroppedImages++
		a.logger.Warn().Err(err).Int("page", pageNumber).Msg("could not add image to document")
		return nil
	}
	a.report.Metrics.Statistics.TotalImages++
	return nil
}
