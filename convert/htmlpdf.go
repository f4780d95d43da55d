package convert

import (
	"context"

	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
)

// htmlPDFStrategy prints HTML to PDF through a headless browser.
type htmlPDFStrategy struct{}

func (*htmlPDFStrategy) Kind() Kind { return HTMLToPDF }

func (*htmlPDFStrategy) Requires() []capability.Capability {
	return []capability.Capability{capability.Browser}
}

func (*htmlPDFStrategy) Validate(in Input, _ Options) error {
	if len(in.Files) == 0 || len(in.Primary().Data) == 0 {
		return &OptionError{Field: "input", Reason: "no input document"}
	}
	return nil
}

func (s *htmlPDFStrategy) Convert(ctx context.Context, env *Env, in Input, _ Options) (*Output, error) {
	handle, err := env.Scratch.Acquire()
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	data, err := env.Printer.PrintHTML(ctx, in.Primary().Data, handle.Dir())
	if err != nil {
		return nil, err
	}
	return &Output{
		Files: []NamedFile{{Name: baseName(in) + ".pdf", Data: data}},
		MIME:  format.PDF.MIME(),
	}, nil
}
