package convert

import (
	"context"
	"fmt"

	"github.com/tsawler/papermill/backend"
	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
	"github.com/tsawler/papermill/model"
	"github.com/tsawler/papermill/pageops"
	"github.com/tsawler/papermill/scratch"
)

// Kind identifies one supported conversion.
type Kind string

const (
	// ToDOCX converts a PDF to a Word document.
	ToDOCX Kind = "pdf-to-docx"
	// ToXLSX converts a PDF's detected tables to an Excel workbook.
	ToXLSX Kind = "pdf-to-xlsx"
	// ToPPTX converts a PDF to a PowerPoint deck, one rasterized
	// slide per page.
	ToPPTX Kind = "pdf-to-pptx"
	// ToImages rasterizes a PDF's pages to images.
	ToImages Kind = "pdf-to-images"
	// ToText extracts a PDF's plain text.
	ToText Kind = "pdf-to-text"
	// ToHTML renders a PDF's text as an HTML document.
	ToHTML Kind = "pdf-to-html"
	// ToXML renders a PDF's structure as XML.
	ToXML Kind = "pdf-to-xml"
	// ImagesToPDF assembles images into a PDF, one page per image.
	ImagesToPDF Kind = "images-to-pdf"
	// OfficeToPDF renders an Office document to PDF.
	OfficeToPDF Kind = "office-to-pdf"
	// HTMLToPDF prints an HTML document to PDF.
	HTMLToPDF Kind = "html-to-pdf"
	// TextToPDF lays plain text out as a PDF.
	TextToPDF Kind = "text-to-pdf"
)

// NamedFile is one input or output artifact.
type NamedFile struct {
	Name string
	Data []byte
}

// Input carries a conversion's source material. Most conversions read
// a single file; ImagesToPDF accepts several.
type Input struct {
	Files  []NamedFile
	Format format.Format
}

// Primary returns the first input file, or a zero NamedFile when the
// input is empty.
func (in Input) Primary() NamedFile {
	if len(in.Files) == 0 {
		return NamedFile{}
	}
	return in.Files[0]
}

// Options tunes a conversion. The zero value means defaults.
type Options struct {
	// DPI sets the rasterization resolution for image output and
	// slide rendering. Zero means 150.
	DPI int
	// ImageFormat selects PNG or JPEG for rasterized output. Zero
	// means PNG.
	ImageFormat format.Format
	// Pages restricts page-oriented conversions to a 1-based range
	// spec such as "1-3,7". Empty means all pages.
	Pages string
	// PageSize selects the page size for text layout: "letter" or
	// "a4". Empty means letter.
	PageSize string
}

// DefaultDPI is the rasterization resolution used when Options.DPI is
// zero.
const DefaultDPI = 150

func (o Options) dpi() int {
	if o.DPI == 0 {
		return DefaultDPI
	}
	return o.DPI
}

func (o Options) imageFormat() format.Format {
	if o.ImageFormat == 0 {
		return format.PNG
	}
	return o.ImageFormat
}

// OptionError reports an option value a conversion cannot honor.
type OptionError struct {
	Field  string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option %s: %s", e.Field, e.Reason)
}

// Output is a finished conversion's artifacts. Files holds one entry
// per produced artifact, in order; MIME describes the artifact type.
type Output struct {
	Files    []NamedFile
	MIME     string
	Warnings []string
}

// Env gives strategies access to the probed capabilities, external
// backends and scratch space. Backends for absent capabilities are
// nil; strategies declare their needs via Requires so the caller can
// refuse the conversion before Convert runs.
type Env struct {
	Caps    capability.Set
	Office  *backend.Office
	Raster  *backend.Raster
	Printer *backend.Printer
	Scratch *scratch.Manager
}

// NewEnv builds an Env from a capability snapshot, wiring a real
// backend for each available capability.
func NewEnv(caps capability.Set, scratchDir string) *Env {
	env := &Env{Caps: caps, Scratch: scratch.NewManager(scratchDir)}
	if e, ok := caps.Lookup(capability.OfficeRenderer); ok && e.Available {
		env.Office = backend.NewOffice(e.Path)
	}
	if e, ok := caps.Lookup(capability.Rasterizer); ok && e.Available {
		env.Raster = backend.NewRaster(e.Path)
	}
	if e, ok := caps.Lookup(capability.Browser); ok && e.Available {
		env.Printer = backend.NewPrinter(e.Path)
	}
	return env
}

// Strategy implements one conversion kind.
type Strategy interface {
	// Kind names the conversion.
	Kind() Kind
	// Requires lists capabilities the conversion cannot run without.
	Requires() []capability.Capability
	// Validate checks input and options without performing work.
	Validate(in Input, opts Options) error
	// Convert performs the conversion. The context bounds any
	// external tool invocations.
	Convert(ctx context.Context, env *Env, in Input, opts Options) (*Output, error)
}

// registry is the fixed strategy table. The set of conversions is
// closed: callers select by Kind, they do not register their own.
var registry = func() map[Kind]Strategy {
	strategies := []Strategy{
		&docxStrategy{},
		&xlsxStrategy{},
		&pptxStrategy{},
		&imagesStrategy{},
		&textStrategy{},
		&htmlStrategy{},
		&xmlStrategy{},
		&imagePDFStrategy{},
		&officePDFStrategy{},
		&htmlPDFStrategy{},
		&textPDFStrategy{},
	}
	m := make(map[Kind]Strategy, len(strategies))
	for _, s := range strategies {
		m[s.Kind()] = s
	}
	return m
}()

// Lookup returns the strategy for kind.
func Lookup(kind Kind) (Strategy, bool) {
	s, ok := registry[kind]
	return s, ok
}

// Kinds returns every supported conversion kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for _, s := range []Kind{
		ToDOCX, ToXLSX, ToPPTX, ToImages, ToText, ToHTML, ToXML,
		ImagesToPDF, OfficeToPDF, HTMLToPDF, TextToPDF,
	} {
		if _, ok := registry[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// decodeDoc decodes the primary input as a PDF document.
func decodeDoc(in Input) (*model.Document, error) {
	return model.Decode(in.Primary().Data)
}

// selectPages applies the Pages option, returning the document
// untouched when no range is given.
func selectPages(doc *model.Document, opts Options) (*model.Document, error) {
	if opts.Pages == "" {
		return doc, nil
	}
	indices, err := pageops.ParseRanges(opts.Pages, doc.PageCount())
	if err != nil {
		return nil, &OptionError{Field: "pages", Reason: err.Error()}
	}
	return pageops.Extract(doc, indices)
}

// requirePDF is the shared Validate check for PDF-sourced conversions.
func requirePDF(in Input) error {
	if len(in.Files) == 0 || len(in.Primary().Data) == 0 {
		return &OptionError{Field: "input", Reason: "no input document"}
	}
	if f := format.DetectFromMagic(in.Primary().Data); f != format.PDF {
		return &OptionError{Field: "input", Reason: "input is not a PDF document"}
	}
	return nil
}

// baseName strips the extension from the primary input's name, with a
// fallback for anonymous inputs.
func baseName(in Input) string {
	name := in.Primary().Name
	if name == "" {
		return "document"
	}
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
		if name[i] == '/' || name[i] == '\\' {
			break
		}
	}
	return name
}
