package pdfdocx

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ProcessingMetrics contains timing and statistics for PDF conversion
type ProcessingMetrics struct {
	TotalTime       time.Duration
	DocumentOpen    time.Duration
	PageExtractions []PageMetrics
	Statistics      DocumentStatistics
}

// PageMetrics contains timing for a single page
type PageMetrics struct {
	PageNumber int
	Duration   time.Duration
}

// DocumentStatistics contains document-level statistics
type DocumentStatistics struct {
	TotalPages      int
	TotalParagraphs int
	TotalRuns       int
	TotalImages     int
	DroppedImages   int
	PageBreaks      int
	TotalCharacters int
}

// Converter converts PDFs to DOCX using pdfium text extraction.
type Converter struct {
	instance pdfium.Pdfium
	config   Config
	logger   zerolog.Logger
}

// NewConverter creates a new PDF to DOCX converter with default configuration.
func NewConverter(instance pdfium.Pdfium) *Converter {
	return NewConverterWithConfig(instance, DefaultConfig())
}

// NewConverterWithConfig creates a new PDF to DOCX converter with custom configuration.
func NewConverterWithConfig(instance pdfium.Pdfium, config Config) *Converter {
	return &Converter{
		instance: instance,
		config:   config,
		logger:   zerolog.Nop(),
	}
}

// WithLogger sets the logger used for diagnostics and metrics.
func (c *Converter) WithLogger(logger zerolog.Logger) *Converter {
	c.logger = logger
	return c
}

// ConvertFile converts a PDF file to DOCX.
func (c *Converter) ConvertFile(filePath string) ([]byte, error) {
	data, err := readPDFFile(filePath)
	if err != nil {
		return nil, err
	}
	return c.ConvertBytes(data)
}

// ConvertBytes converts PDF bytes to DOCX.
func (c *Converter) ConvertBytes(pdfBytes []byte) ([]byte, error) {
	return c.ConvertContext(context.Background(), pdfBytes)
}

// ConvertReader converts a PDF from an io.ReadSeeker to DOCX.
func (c *Converter) ConvertReader(reader io.ReadSeeker) ([]byte, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, newConversionError(ErrUnreadableSource, err, "failed to read PDF")
	}
	return c.ConvertBytes(data)
}

// ConvertContext converts all pages of a PDF. The context is checked
// between pages.
func (c *Converter) ConvertContext(ctx context.Context, pdfBytes []byte) ([]byte, error) {
	out, _, err := c.ConvertWithReport(ctx, pdfBytes, -1, -1)
	return out, err
}

// ConvertPageRange converts a specific range of pages to DOCX. Pages are
// zero-based and inclusive; a negative bound means the first or last page.
func (c *Converter) ConvertPageRange(filePath string, startPage, endPage int) ([]byte, error) {
	data, err := readPDFFile(filePath)
	if err != nil {
		return nil, err
	}
	out, _, err := c.ConvertWithReport(context.Background(), data, startPage, endPage)
	return out, err
}

// ConvertFileWithMetrics converts a PDF and returns both the DOCX and metrics
func (c *Converter) ConvertFileWithMetrics(filePath string) ([]byte, ProcessingMetrics, error) {
	data, err := readPDFFile(filePath)
	if err != nil {
		return nil, ProcessingMetrics{}, err
	}
	out, report, err := c.ConvertWithReport(context.Background(), data, -1, -1)
	if err != nil {
		return nil, ProcessingMetrics{}, err
	}
	return out, report.Metrics, nil
}

// ConvertWithReport converts pages startPage..endPage of a PDF and returns
// the DOCX together with metrics and the images that were skipped.
func (c *Converter) ConvertWithReport(ctx context.Context, pdfBytes []byte, startPage, endPage int) ([]byte, *Report, error) {
	if len(pdfBytes) == 0 {
		return nil, nil, newConversionError(ErrEmptyInput, nil, "no PDF bytes provided")
	}

	openStart := time.Now()
	doc, err := c.instance.OpenDocument(&requests.OpenDocument{
		File: &pdfBytes,
	})
	if err != nil {
		return nil, nil, newConversionError(ErrUnreadableSource, err, "failed to open PDF document")
	}
	defer c.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	source, err := newPDFiumSource(c.instance, doc.Document)
	if err != nil {
		return nil, nil, newConversionError(ErrUnreadableSource, err, "failed to read PDF document")
	}
	defer source.Close()
	openTime := time.Since(openStart)

	out, report, err := c.ConvertSource(ctx, source, startPage, endPage)
	if report != nil {
		report.Metrics.DocumentOpen = openTime
	}
	return out, report, err
}

// ConvertSource converts pages startPage..endPage of any page model to DOCX.
func (c *Converter) ConvertSource(ctx context.Context, source PageSource, startPage, endPage int) ([]byte, *Report, error) {
	pageCount := source.PageCount()
	if pageCount <= 0 {
		return nil, nil, newConversionError(ErrUnreadableSource, nil, "document has no pages")
	}

	pages, err := pageRange(pageCount, startPage, endPage)
	if err != nil {
		return nil, nil, err
	}

	c.logger.Debug().
		Int("pages", len(pages)).
		Int("page_count", pageCount).
		Msg("converting document")

	assembler := NewAssembler(source, NewDOCXWriter(), c.config, c.logger)
	out, err := assembler.Assemble(ctx, pages)
	report := assembler.Report()
	if err != nil {
		return nil, &report, err
	}

	if c.config.EnableMetricsLogging {
		logProcessingMetrics(c.logger, report.Metrics)
	}

	return out, &report, nil
}

// pageRange resolves an inclusive zero-based page range.
func pageRange(pageCount, startPage, endPage int) ([]int, error) {
	if startPage < 0 {
		startPage = 0
	}
	if endPage < 0 || endPage >= pageCount {
		endPage = pageCount - 1
	}
	if startPage > endPage {
		return nil, errors.Errorf("invalid page range: start page %d must be <= end page %d", startPage, endPage)
	}

	pages := make([]int, 0, endPage-startPage+1)
	for i := startPage; i <= endPage; i++ {
		pages = append(pages, i)
	}
	return pages, nil
}

func readPDFFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, newConversionError(ErrUnreadableSource, err, "failed to read %s", filePath)
	}
	return data, nil
}

// logProcessingMetrics logs the processing metrics as structured events
func logProcessingMetrics(logger zerolog.Logger, metrics ProcessingMetrics) {
	stats := metrics.Statistics

	for _, pm := range metrics.PageExtractions {
		logger.Debug().
			Int("page", pm.PageNumber).
			Dur("duration", pm.Duration.Round(time.Millisecond)).
			Msg("page timing")
	}

	event := logger.Info().
		Dur("total_time", metrics.TotalTime.Round(time.Millisecond)).
		Dur("document_open", metrics.DocumentOpen.Round(time.Millisecond)).
		Int("pages", stats.TotalPages).
		Int("paragraphs", stats.TotalParagraphs).
		Int("runs", stats.TotalRuns).
		Int("images", stats.TotalImages).
		Int("dropped_images", stats.DroppedImages).
		Int("page_breaks", stats.PageBreaks).
		Int("characters", stats.TotalCharacters)

	if len(metrics.PageExtractions) > 0 {
		avgTime := metrics.TotalTime / time.Duration(len(metrics.PageExtractions))
		event = event.Dur("avg_per_page", avgTime.Round(time.Millisecond))
	}

	event.Msg("PDF processing metrics")
}

// GetDocumentInfo returns basic information about a PDF without converting it.
func (c *Converter) GetDocumentInfo(filePath string) (*DocumentInfo, error) {
	data, err := readPDFFile(filePath)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, newConversionError(ErrEmptyInput, nil, "%s is empty", filePath)
	}

	doc, err := c.instance.OpenDocument(&requests.OpenDocument{
		File: &data,
	})
	if err != nil {
		return nil, newConversionError(ErrUnreadableSource, err, "failed to open PDF document")
	}
	defer c.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	source, err := newPDFiumSource(c.instance, doc.Document)
	if err != nil {
		return nil, newConversionError(ErrUnreadableSource, err, "failed to read PDF document")
	}
	defer source.Close()

	info := &DocumentInfo{PageCount: source.PageCount()}
	for i := 0; i < info.PageCount; i++ {
		geometry, err := source.PageGeometry(i)
		if err != nil {
			return nil, newConversionError(ErrUnreadableSource, err, "failed to read page %d", i+1)
		}
		info.Pages = append(info.Pages, geometry)
	}
	return info, nil
}

// DocumentInfo contains basic information about a PDF document.
type DocumentInfo struct {
	PageCount int
	Pages     []PageGeometry
}
