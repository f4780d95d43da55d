package convert

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
	"github.com/tsawler/papermill/model"
	"github.com/tsawler/papermill/pdf"
)

// imagePDFStrategy assembles images into a PDF, one page per image.
// JPEG data is embedded as-is under a DCT filter; other formats are
// decoded and re-encoded as flate-compressed RGB.
type imagePDFStrategy struct{}

func (*imagePDFStrategy) Kind() Kind                        { return ImagesToPDF }
func (*imagePDFStrategy) Requires() []capability.Capability { return nil }

func (*imagePDFStrategy) Validate(in Input, _ Options) error {
	if len(in.Files) == 0 {
		return &OptionError{Field: "input", Reason: "no images to assemble"}
	}
	for _, f := range in.Files {
		if format.DetectFromMagic(f.Data).IsImage() {
			continue
		}
		return &OptionError{
			Field:  "input",
			Reason: fmt.Sprintf("%s is not a supported image", f.Name),
		}
	}
	return nil
}

// imagePointsPerPixel converts pixel dimensions to page points,
// treating images as 96 DPI content on a 72 points-per-inch page.
const imagePointsPerPixel = 72.0 / 96.0

func (s *imagePDFStrategy) Convert(_ context.Context, _ *Env, in Input, _ Options) (*Output, error) {
	doc := &model.Document{}
	for i, f := range in.Files {
		page, err := imagePage(f)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", f.Name, err)
		}
		page.Index = i
		doc.Pages = append(doc.Pages, page)
	}

	data, err := model.Encode(doc)
	if err != nil {
		return nil, err
	}
	name := baseName(in) + ".pdf"
	if len(in.Files) > 1 {
		name = "images.pdf"
	}
	return &Output{
		Files: []NamedFile{{Name: name, Data: data}},
		MIME:  format.PDF.MIME(),
	}, nil
}

// imagePage builds a page showing one image at its natural size.
func imagePage(f NamedFile) (model.Page, error) {
	var xobj *pdf.Stream
	var pxW, pxH int
	var err error

	switch format.DetectFromMagic(f.Data) {
	case format.JPEG:
		xobj, pxW, pxH, err = jpegXObject(f.Data)
	case format.PNG:
		xobj, pxW, pxH, err = decodedXObject(f.Data, png.Decode)
	case format.TIFF:
		xobj, pxW, pxH, err = decodedXObject(f.Data, tiff.Decode)
	case format.BMP:
		xobj, pxW, pxH, err = decodedXObject(f.Data, bmp.Decode)
	default:
		err = fmt.Errorf("unsupported image format")
	}
	if err != nil {
		return model.Page{}, err
	}

	w := float64(pxW) * imagePointsPerPixel
	h := float64(pxH) * imagePointsPerPixel
	content := fmt.Sprintf("q\n%g 0 0 %g 0 0 cm\n/Im0 Do\nQ\n", w, h)

	return model.Page{
		Width:   w,
		Height:  h,
		Content: []byte(content),
		Resources: pdf.Dict{
			"XObject": pdf.Dict{"Im0": xobj},
		},
	}, nil
}

// jpegXObject embeds JPEG data directly; PDF viewers decode DCT
// natively, so no transcoding is needed.
func jpegXObject(data []byte) (*pdf.Stream, int, int, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading jpeg header: %w", err)
	}
	colorSpace := pdf.Name("DeviceRGB")
	if cfg.ColorModel == color.GrayModel {
		colorSpace = pdf.Name("DeviceGray")
	}
	return &pdf.Stream{
		Dict: pdf.Dict{
			"Type":             pdf.Name("XObject"),
			"Subtype":          pdf.Name("Image"),
			"Width":            pdf.Int(cfg.Width),
			"Height":           pdf.Int(cfg.Height),
			"ColorSpace":       colorSpace,
			"BitsPerComponent": pdf.Int(8),
			"Filter":           pdf.Name("DCTDecode"),
		},
		Raw: data,
	}, cfg.Width, cfg.Height, nil
}

// decodedXObject decodes an image and re-encodes its pixels as
// flate-compressed 8-bit RGB.
func decodedXObject(data []byte, decode func(io.Reader) (image.Image, error)) (*pdf.Stream, int, int, error) {
	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding image: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rgb := make([]byte, 0, w*h*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rgb = append(rgb, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(rgb); err != nil {
		return nil, 0, 0, fmt.Errorf("compressing pixels: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, 0, 0, fmt.Errorf("compressing pixels: %w", err)
	}

	return &pdf.Stream{
		Dict: pdf.Dict{
			"Type":             pdf.Name("XObject"),
			"Subtype":          pdf.Name("Image"),
			"Width":            pdf.Int(w),
			"Height":           pdf.Int(h),
			"ColorSpace":       pdf.Name("DeviceRGB"),
			"BitsPerComponent": pdf.Int(8),
			"Filter":           pdf.Name("FlateDecode"),
		},
		Raw: buf.Bytes(),
	}, w, h, nil
}
