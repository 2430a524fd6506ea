package pdfdocx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/cespare/xxhash/v2"
	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
)

const filterDCT = "DCTDecode"

// Images lists the image objects placed on a page. The same image data placed
// twice on a page is reported once, at its first placement. An image whose
// data cannot be read is still reported, with no data, so the caller can
// record it.
func (s *pdfiumSource) Images(index int) ([]RawImage, error) {
	lp, err := s.load(index)
	if err != nil {
		return nil, err
	}

	countResp, err := s.instance.FPDFPage_CountObjects(&requests.FPDFPage_CountObjects{
		Page: requests.Page{
			ByReference: &lp.page,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count page objects")
	}

	var images []RawImage
	seen := make(map[uint64]struct{})

	for i := 0; i < countResp.Count; i++ {
		objResp, err := s.instance.FPDFPage_GetObject(&requests.FPDFPage_GetObject{
			Page: requests.Page{
				ByReference: &lp.page,
			},
			Index: i,
		})
		if err != nil {
			continue
		}

		typeResp, err := s.instance.FPDFPageObj_GetType(&requests.FPDFPageObj_GetType{
			PageObject: objResp.PageObject,
		})
		if err != nil || typeResp.Type != enums.FPDF_PAGEOBJ_IMAGE {
			continue
		}

		raw := RawImage{Placement: s.imagePlacement(objResp.PageObject, lp.height)}

		data, ext, err := s.imageData(lp, objResp.PageObject)
		if err == nil {
			digest := xxhash.Sum64(data)
			if _, dup := seen[digest]; dup {
				continue
			}
			seen[digest] = struct{}{}
			raw.Data = data
			raw.Ext = ext
		}

		images = append(images, raw)
	}

	return images, nil
}

// imagePlacement returns the object's bounds in top-left page coordinates, or
// nil when the object has no usable bounds.
func (s *pdfiumSource) imagePlacement(object references.FPDF_PAGEOBJECT, pageHeight float64) *Rect {
	bounds, err := s.instance.FPDFPageObj_GetBounds(&requests.FPDFPageObj_GetBounds{
		PageObject: object,
	})
	if err != nil || bounds.Right <= bounds.Left || bounds.Top <= bounds.Bottom {
		return nil
	}

	return &Rect{
		X0: float64(bounds.Left),
		Y0: pageHeight - float64(bounds.Top),
		X1: float64(bounds.Right),
		Y1: pageHeight - float64(bounds.Bottom),
	}
}

// imageData returns encoded image bytes. JPEG streams are passed through
// untouched; anything else is rendered by pdfium and encoded as PNG.
func (s *pdfiumSource) imageData(lp *loadedPage, object references.FPDF_PAGEOBJECT) ([]byte, string, error) {
	if s.isJPEG(object) {
		raw, err := s.instance.FPDFImageObj_GetImageDataRaw(&requests.FPDFImageObj_GetImageDataRaw{
			ImageObject: object,
		})
		if err == nil && len(raw.Data) > 0 {
			return raw.Data, "jpeg", nil
		}
	}

	bitmapResp, err := s.instance.FPDFImageObj_GetRenderedBitmap(&requests.FPDFImageObj_GetRenderedBitmap{
		Document: s.document,
		Page: requests.Page{
			ByReference: &lp.page,
		},
		ImageObject: object,
	})
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to render image")
	}
	bitmap := bitmapResp.Bitmap
	defer s.instance.FPDFBitmap_Destroy(&requests.FPDFBitmap_Destroy{Bitmap: bitmap})

	width, err := s.instance.FPDFBitmap_GetWidth(&requests.FPDFBitmap_GetWidth{Bitmap: bitmap})
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to get bitmap width")
	}
	height, err := s.instance.FPDFBitmap_GetHeight(&requests.FPDFBitmap_GetHeight{Bitmap: bitmap})
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to get bitmap height")
	}
	stride, err := s.instance.FPDFBitmap_GetStride(&requests.FPDFBitmap_GetStride{Bitmap: bitmap})
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to get bitmap stride")
	}
	format, err := s.instance.FPDFBitmap_GetFormat(&requests.FPDFBitmap_GetFormat{Bitmap: bitmap})
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to get bitmap format")
	}
	buffer, err := s.instance.FPDFBitmap_GetBuffer(&requests.FPDFBitmap_GetBuffer{Bitmap: bitmap})
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to get bitmap buffer")
	}

	img, err := bitmapToImage(buffer.Buffer, width.Width, height.Height, stride.Stride, format.Format)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", errors.Wrap(err, "failed to encode rendered image")
	}
	return buf.Bytes(), "png", nil
}

// isJPEG reports whether the image stream is stored with a single DCT filter.
func (s *pdfiumSource) isJPEG(object references.FPDF_PAGEOBJECT) bool {
	count, err := s.instance.FPDFImageObj_GetImageFilterCount(&requests.FPDFImageObj_GetImageFilterCount{
		ImageObject: object,
	})
	if err != nil || count.Count != 1 {
		return false
	}

	filter, err := s.instance.FPDFImageObj_GetImageFilter(&requests.FPDFImageObj_GetImageFilter{
		ImageObject: object,
		Index:       0,
	})
	return err == nil && filter.ImageFilter == filterDCT
}

// bitmapToImage converts a pdfium bitmap buffer to an image. BGRA bitmaps
// keep their alpha channel; the other formats are opaque.
func bitmapToImage(buf []byte, width, height, stride int, format enums.FPDF_BITMAP_FORMAT) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid bitmap size %dx%d", width, height)
	}

	var bpp int
	switch format {
	case enums.FPDF_BITMAP_FORMAT_GRAY:
		bpp = 1
	case enums.FPDF_BITMAP_FORMAT_BGR:
		bpp = 3
	case enums.FPDF_BITMAP_FORMAT_BGRX, enums.FPDF_BITMAP_FORMAT_BGRA:
		bpp = 4
	default:
		return nil, errors.Errorf("unsupported bitmap format %d", format)
	}
	if stride < width*bpp || len(buf) < stride*(height-1)+width*bpp {
		return nil, errors.Errorf("bitmap buffer too short for %dx%d", width, height)
	}

	if format == enums.FPDF_BITMAP_FORMAT_GRAY {
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+width], buf[y*stride:y*stride+width])
		}
		return img, nil
	}

	if format == enums.FPDF_BITMAP_FORMAT_BGRA {
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			row := buf[y*stride:]
			for x := 0; x < width; x++ {
				p := row[x*bpp:]
				img.SetNRGBA(x, y, color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]})
			}
		}
		return img, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := buf[y*stride:]
		for x := 0; x < width; x++ {
			p := row[x*bpp:]
			img.SetRGBA(x, y, color.RGBA{R: p[2], G: p[1], B: p[0], A: 0xFF})
		}
	}
	return img, nil
}
