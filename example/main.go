package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/ivanvanderbyl/pdfdocx"
	"github.com/ivanvanderbyl/pdfdocx/docx"
)

func main() {
	cmd := &cli.Command{
		Name:  "pdfdocx",
		Usage: "Convert PDF files to flowing DOCX documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Input PDF file path",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output DOCX file path (default: input with .docx extension)",
			},
			&cli.IntFlag{
				Name:  "start-page",
				Usage: "Start page number (0-indexed)",
				Value: -1,
			},
			&cli.IntFlag{
				Name:  "end-page",
				Usage: "End page number (0-indexed)",
				Value: -1,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (trace, debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (console or json)",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "Check that the written DOCX opens as a valid package",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Log processing time and statistics",
			},
		},
		Action: convertPDF,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger := pdfdocx.NewLogger(pdfdocx.LogConfig{Level: "error"})
		logger.Fatal().Err(err).Msg("conversion failed")
	}
}

func convertPDF(ctx context.Context, cmd *cli.Command) error {
	inputPath := cmd.String("input")
	outputPath := cmd.String("output")
	startPage := cmd.Int("start-page")
	endPage := cmd.Int("end-page")

	config, err := pdfdocx.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if level := cmd.String("log-level"); level != "" {
		config.Log.Level = level
	}
	if format := cmd.String("log-format"); format != "" {
		config.Log.Format = format
	}
	if cmd.Bool("metrics") {
		config.EnableMetricsLogging = true
	}
	logger := pdfdocx.NewLogger(config.Log)

	if outputPath == "" {
		outputPath = docxPath(inputPath)
	}

	// Initialise pdfium
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialise pdfium")
	}
	defer pool.Close()

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		return errors.Wrap(err, "failed to get pdfium instance")
	}

	converter := pdfdocx.NewConverterWithConfig(instance, config).WithLogger(logger)

	info, err := converter.GetDocumentInfo(inputPath)
	if err != nil {
		return errors.Wrap(err, "failed to get document info")
	}
	logger.Info().Str("input", inputPath).Int("pages", info.PageCount).Msg("processing PDF")

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return errors.Wrap(err, "failed to read input file")
	}

	out, report, err := converter.ConvertWithReport(ctx, data, int(startPage), int(endPage))
	if err != nil {
		return errors.Wrap(err, "failed to convert PDF")
	}
	logDiagnostics(logger, report)

	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return errors.Wrap(err, "failed to write output file")
	}

	if cmd.Bool("verify") {
		summary, err := docx.Inspect(out)
		if err != nil {
			return errors.Wrap(err, "written document failed verification")
		}
		logger.Info().
			Int("paragraphs", summary.Paragraphs).
			Int("images", summary.Images).
			Int("page_breaks", summary.PageBreaks).
			Msg("document verified")
	}

	logger.Info().
		Str("output", outputPath).
		Int("pages", report.Metrics.Statistics.TotalPages).
		Msg("DOCX written")
	return nil
}

func logDiagnostics(logger zerolog.Logger, report *pdfdocx.Report) {
	if report == nil || len(report.Diagnostics) == 0 {
		return
	}
	for _, d := range report.Diagnostics {
		logger.Debug().Str("diagnostic", d.String()).Msg("skipped item")
	}
	logger.Warn().Int("skipped", len(report.Diagnostics)).Msg("some images could not be converted")
}

// docxPath replaces the input extension with .docx.
func docxPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".docx"
}
