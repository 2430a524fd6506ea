package pdfdocx

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config controls DOCX conversion behavior.
type Config struct {
	// IncludePageBreaks inserts a page break between source pages (default: true)
	IncludePageBreaks bool `yaml:"include_page_breaks"`

	// VerticalGapThreshold is the drop in line top, in points, that starts a
	// new paragraph (default: 15)
	VerticalGapThreshold float64 `yaml:"vertical_gap_threshold"`

	// FontSizeThreshold is the change in average line font size, in points,
	// that starts a new paragraph (default: 2)
	FontSizeThreshold float64 `yaml:"font_size_threshold"`

	// Margins are the output page margins in inches
	// (default: 0.5 top/bottom, 0.75 left/right)
	Margins MarginsConfig `yaml:"margins"`

	// MinImageWidth and MaxImageWidth bound embedded image widths in inches
	// (default: 0.5 and 6.5)
	MinImageWidth float64 `yaml:"min_image_width"`
	MaxImageWidth float64 `yaml:"max_image_width"`

	// EnableMetricsLogging logs processing time and statistics (default: false)
	EnableMetricsLogging bool `yaml:"enable_metrics_logging"`

	// Log configures the logger built by the CLI.
	Log LogConfig `yaml:"log"`
}

// MarginsConfig holds page margins in inches.
type MarginsConfig struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

// DefaultConfig returns the default converter configuration.
func DefaultConfig() Config {
	return Config{
		IncludePageBreaks:    true,
		VerticalGapThreshold: DefaultVerticalGapThreshold,
		FontSizeThreshold:    DefaultFontSizeThreshold,
		Margins: MarginsConfig{
			Top:    0.5,
			Bottom: 0.5,
			Left:   0.75,
			Right:  0.75,
		},
		MinImageWidth: MinImageWidthPt / pointsPerInch,
		MaxImageWidth: MaxImageWidthPt / pointsPerInch,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

const pointsPerInch = 72.0

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
// An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config file")
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse config file")
	}

	if err := config.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}

	return config, nil
}

// Validate checks that thresholds are positive and bounds are ordered.
func (c Config) Validate() error {
	if c.VerticalGapThreshold <= 0 {
		return errors.Errorf("vertical_gap_threshold must be positive, got %v", c.VerticalGapThreshold)
	}
	if c.FontSizeThreshold <= 0 {
		return errors.Errorf("font_size_threshold must be positive, got %v", c.FontSizeThreshold)
	}
	if c.MinImageWidth <= 0 || c.MaxImageWidth < c.MinImageWidth {
		return errors.Errorf("image width bounds must satisfy 0 < min <= max, got %v and %v", c.MinImageWidth, c.MaxImageWidth)
	}
	m := c.Margins
	if m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0 {
		return errors.New("margins must not be negative")
	}
	return nil
}

// SegmentRule returns the paragraph segmentation thresholds.
func (c Config) SegmentRule() SegmentRule {
	return SegmentRule{
		VerticalGap:   c.VerticalGapThreshold,
		FontSizeDelta: c.FontSizeThreshold,
	}
}

// ImageBounds returns the image width bounds in points.
func (c Config) ImageBounds() ImageBounds {
	return ImageBounds{
		MinWidthPt: c.MinImageWidth * pointsPerInch,
		MaxWidthPt: c.MaxImageWidth * pointsPerInch,
	}
}

// PageMargins returns the page margins in points.
func (c Config) PageMargins() Margins {
	return Margins{
		Top:    c.Margins.Top * pointsPerInch,
		Bottom: c.Margins.Bottom * pointsPerInch,
		Left:   c.Margins.Left * pointsPerInch,
		Right:  c.Margins.Right * pointsPerInch,
	}
}
