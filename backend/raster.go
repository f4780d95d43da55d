package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
)

// Raster renders PDF pages to images through poppler's pdftoppm.
type Raster struct {
	// Binary is the pdftoppm executable path, normally taken from the
	// capability probe.
	Binary string
	Runner Runner
}

// NewRaster returns a Raster backend using the given pdftoppm binary
// and the real process runner.
func NewRaster(binary string) *Raster {
	return &Raster{Binary: binary, Runner: ExecRunner{}}
}

// RenderRequest describes one rasterization run.
type RenderRequest struct {
	// Input is the PDF file to render.
	Input string
	// OutDir receives the rendered images. It must be private to this
	// call so the output glob sees only files from this run.
	OutDir string
	// Format is "png" or "jpeg".
	Format string
	// DPI is the render resolution.
	DPI int
	// First and Last bound the 1-based page range. Zero means
	// unbounded on that side.
	First, Last int
}

// Render rasterizes the requested pages and returns the produced image
// paths in page order.
func (r *Raster) Render(ctx context.Context, req RenderRequest) ([]string, error) {
	args := []string{"-r", strconv.Itoa(req.DPI)}
	ext := "png"
	switch req.Format {
	case "jpeg":
		args = append(args, "-jpeg")
		ext = "jpg"
	default:
		args = append(args, "-png")
	}
	if req.First > 0 {
		args = append(args, "-f", strconv.Itoa(req.First))
	}
	if req.Last > 0 {
		args = append(args, "-l", strconv.Itoa(req.Last))
	}
	prefix := filepath.Join(req.OutDir, "page")
	args = append(args, req.Input, prefix)

	if err := run(ctx, r.Runner, r.Binary, args...); err != nil {
		return nil, err
	}

	// pdftoppm zero-pads page numbers uniformly, so a lexicographic
	// sort is page order.
	matches, err := filepath.Glob(prefix + "-*." + ext)
	if err != nil {
		return nil, fmt.Errorf("collecting rendered pages: %w", err)
	}
	if len(matches) == 0 {
		return nil, &Error{
			Tool: r.Binary,
			Args: args,
			Err:  fmt.Errorf("rendering produced no images"),
		}
	}
	sort.Strings(matches)
	return matches, nil
}
