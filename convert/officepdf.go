package convert

import (
	"context"
	"fmt"
	"os"

	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
)

// officePDFStrategy renders Office documents to PDF through the
// headless office backend.
type officePDFStrategy struct{}

func (*officePDFStrategy) Kind() Kind { return OfficeToPDF }

func (*officePDFStrategy) Requires() []capability.Capability {
	return []capability.Capability{capability.OfficeRenderer}
}

func (*officePDFStrategy) Validate(in Input, _ Options) error {
	if len(in.Files) == 0 || len(in.Primary().Data) == 0 {
		return &OptionError{Field: "input", Reason: "no input document"}
	}
	detected := in.Format
	if detected == format.Unknown {
		detected = format.Detect(in.Primary().Name)
	}
	if !detected.IsOffice() {
		return &OptionError{Field: "input", Reason: "input is not an Office document"}
	}
	return nil
}

func (s *officePDFStrategy) Convert(ctx context.Context, env *Env, in Input, _ Options) (*Output, error) {
	handle, err := env.Scratch.Acquire()
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	src := in.Primary()
	staged := "input" + stagedExtension(in)
	input, err := handle.WriteFile(staged, src.Data)
	if err != nil {
		return nil, err
	}

	outPath, err := env.Office.ToPDF(ctx, input, handle.Dir())
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("reading converted output: %w", err)
	}

	return &Output{
		Files: []NamedFile{{Name: baseName(in) + ".pdf", Data: data}},
		MIME:  format.PDF.MIME(),
	}, nil
}

// stagedExtension keeps the input's extension so the renderer picks
// the right import filter.
func stagedExtension(in Input) string {
	if in.Format != format.Unknown {
		return in.Format.Extension()
	}
	if f := format.Detect(in.Primary().Name); f != format.Unknown {
		return f.Extension()
	}
	return ".bin"
}
