package convert

import (
	"context"
	"fmt"
	"os"

	"github.com/tsawler/papermill/backend"
	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
	"github.com/tsawler/papermill/pageops"
)

// minDPI and maxDPI bound the rasterization resolution. Below 36 the
// output is unreadable; above 600 memory use grows without visible
// benefit.
const (
	minDPI = 36
	maxDPI = 600
)

func validateRasterOptions(opts Options) error {
	if opts.DPI != 0 && (opts.DPI < minDPI || opts.DPI > maxDPI) {
		return &OptionError{
			Field:  "dpi",
			Reason: fmt.Sprintf("%d is outside the supported range %d-%d", opts.DPI, minDPI, maxDPI),
		}
	}
	switch opts.ImageFormat {
	case 0, format.PNG, format.JPEG:
	default:
		return &OptionError{
			Field:  "image-format",
			Reason: fmt.Sprintf("%s is not a supported raster output, use PNG or JPEG", opts.ImageFormat),
		}
	}
	return nil
}

// imagesStrategy rasterizes a PDF's pages into one image per page.
type imagesStrategy struct{}

func (*imagesStrategy) Kind() Kind { return ToImages }

func (*imagesStrategy) Requires() []capability.Capability {
	return []capability.Capability{capability.Rasterizer}
}

func (*imagesStrategy) Validate(in Input, opts Options) error {
	if err := requirePDF(in); err != nil {
		return err
	}
	return validateRasterOptions(opts)
}

func (s *imagesStrategy) Convert(ctx context.Context, env *Env, in Input, opts Options) (*Output, error) {
	doc, err := decodeDoc(in)
	if err != nil {
		return nil, err
	}

	var selected []int
	if opts.Pages != "" {
		selected, err = pageops.ParseRanges(opts.Pages, doc.PageCount())
		if err != nil {
			return nil, &OptionError{Field: "pages", Reason: err.Error()}
		}
	}

	files, err := rasterizePages(ctx, env, in, opts)
	if err != nil {
		return nil, err
	}
	defer files.close()

	imgFormat := opts.imageFormat()
	base := baseName(in)
	var out []NamedFile
	pick := func(i int) error {
		if i >= len(files.paths) {
			return fmt.Errorf("rasterizer produced %d pages, expected page %d", len(files.paths), i+1)
		}
		data, err := os.ReadFile(files.paths[i])
		if err != nil {
			return fmt.Errorf("reading rendered page: %w", err)
		}
		out = append(out, NamedFile{
			Name: fmt.Sprintf("%s-page-%d%s", base, i+1, imgFormat.Extension()),
			Data: data,
		})
		return nil
	}
	if selected == nil {
		for i := range files.paths {
			if err := pick(i); err != nil {
				return nil, err
			}
		}
	} else {
		for _, i := range selected {
			if err := pick(i); err != nil {
				return nil, err
			}
		}
	}

	return &Output{Files: out, MIME: imgFormat.MIME()}, nil
}

// renderedPages ties rasterizer output to the scratch handle that owns
// it.
type renderedPages struct {
	paths []string
	done  func()
}

func (r *renderedPages) close() {
	if r.done != nil {
		r.done()
	}
}

// rasterizePages stages the input PDF in scratch space and renders
// every page through the rasterizer backend.
func rasterizePages(ctx context.Context, env *Env, in Input, opts Options) (*renderedPages, error) {
	handle, err := env.Scratch.Acquire()
	if err != nil {
		return nil, err
	}
	input, err := handle.WriteFile("input.pdf", in.Primary().Data)
	if err != nil {
		handle.Close()
		return nil, err
	}

	fmtName := "png"
	if opts.imageFormat() == format.JPEG {
		fmtName = "jpeg"
	}
	outDir := handle.Path("pages")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		handle.Close()
		return nil, fmt.Errorf("creating render directory: %w", err)
	}
	paths, err := env.Raster.Render(ctx, backend.RenderRequest{
		Input:  input,
		OutDir: outDir,
		Format: fmtName,
		DPI:    opts.dpi(),
	})
	if err != nil {
		handle.Close()
		return nil, err
	}
	return &renderedPages{paths: paths, done: func() { handle.Close() }}, nil
}
