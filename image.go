package pdfdocx

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image display width bounds, in points (0.5in and 6.5in).
const (
	MinImageWidthPt = 36.0
	MaxImageWidthPt = 468.0

	// assumedImageDPI converts pixel widths when no placement width is known.
	assumedImageDPI = 96.0
)

// ColorMode is the pixel layout an image is normalized to.
type ColorMode int

const (
	ModeRGB ColorMode = iota
	ModeRGBA
)

func (m ColorMode) String() string {
	if m == ModeRGBA {
		return "RGBA"
	}
	return "RGB"
}

// ImageBounds clamps the display width of embedded images.
type ImageBounds struct {
	MinWidthPt float64
	MaxWidthPt float64
}

// DefaultImageBounds returns the 0.5in to 6.5in width range.
func DefaultImageBounds() ImageBounds {
	return ImageBounds{MinWidthPt: MinImageWidthPt, MaxWidthPt: MaxImageWidthPt}
}

// AdaptedImage is an image ready for embedding.
type AdaptedImage struct {
	PNG     []byte
	WidthPt float64
	Width   int // Pixels
	Height  int // Pixels
	Mode    ColorMode
}

// AdaptImage decodes an embedded image, normalizes it to RGB or RGBA,
// computes its display width and re-encodes it as PNG.
//
// placementWidth is the width of the image's placement rectangle in points;
// a non-positive value falls back to the pixel width at 96 DPI.
func (b ImageBounds) AdaptImage(data []byte, placementWidth float64) (*AdaptedImage, error) {
	if len(data) == 0 {
		return nil, errors.New("image data is empty")
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, errors.Errorf("%s image has no pixels", format)
	}

	mode := detectColorMode(src)
	normalized := normalizeImage(src, mode)

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, normalized); err != nil {
		return nil, errors.Wrap(err, "failed to encode PNG")
	}

	return &AdaptedImage{
		PNG:     buf.Bytes(),
		WidthPt: b.DisplayWidth(placementWidth, bounds.Dx()),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Mode:    mode,
	}, nil
}

// DisplayWidth returns the clamped display width in points.
func (b ImageBounds) DisplayWidth(placementWidth float64, pixelWidth int) float64 {
	width := placementWidth
	if width <= 0 {
		width = float64(pixelWidth) / assumedImageDPI * 72
	}
	return clamp(width, b.MinWidthPt, b.MaxWidthPt)
}

// detectColorMode keeps transparency only when the source has an alpha
// channel or a palette.
func detectColorMode(img image.Image) ColorMode {
	switch img.(type) {
	case *image.Paletted:
		return ModeRGBA
	case *image.Gray, *image.Gray16, *image.CMYK, *image.YCbCr:
		return ModeRGB
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return ModeRGBA
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return ModeRGBA
	}
	return ModeRGB
}

// normalizeImage redraws img into an RGBA (transparency kept) or an opaque
// RGB buffer.
func normalizeImage(img image.Image, mode ColorMode) image.Image {
	bounds := img.Bounds()
	rect := image.Rect(0, 0, bounds.Dx(), bounds.Dy())

	if mode == ModeRGBA {
		dst := image.NewNRGBA(rect)
		draw.Draw(dst, rect, img, bounds.Min, draw.Src)
		return dst
	}

	dst := image.NewRGBA(rect)
	draw.Draw(dst, rect, img, bounds.Min, draw.Src)
	// Drop any alpha so the encoder writes a truecolor PNG without a channel.
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xFF
	}
	return dst
}
