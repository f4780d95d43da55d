package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
	"github.com/tsawler/papermill/model"
	"github.com/tsawler/papermill/pdf"
)

// textPDFStrategy lays plain text out as a PDF: letter or A4 pages,
// fixed margins, Helvetica, with long lines wrapped and form feeds
// honored as page breaks.
type textPDFStrategy struct{}

func (*textPDFStrategy) Kind() Kind                        { return TextToPDF }
func (*textPDFStrategy) Requires() []capability.Capability { return nil }

func (*textPDFStrategy) Validate(in Input, opts Options) error {
	if len(in.Files) == 0 {
		return &OptionError{Field: "input", Reason: "no input text"}
	}
	if _, _, err := textPageSize(opts); err != nil {
		return err
	}
	return nil
}

// Page layout constants, in points.
const (
	textPageWidth  = 612
	textPageHeight = 792
	textMargin     = 72
	textFontSize   = 11
	textLeading    = 14
)

// textPageSize resolves the PageSize option to page dimensions in
// points. Letter is the default.
func textPageSize(opts Options) (width, height int, err error) {
	switch strings.ToLower(opts.PageSize) {
	case "", "letter":
		return textPageWidth, textPageHeight, nil
	case "a4":
		return 595, 842, nil
	default:
		return 0, 0, &OptionError{
			Field:  "page-size",
			Reason: fmt.Sprintf("unsupported page size %q", opts.PageSize),
		}
	}
}

func (s *textPDFStrategy) Convert(_ context.Context, _ *Env, in Input, opts Options) (*Output, error) {
	width, height, err := textPageSize(opts)
	if err != nil {
		return nil, err
	}
	pages := layoutText(string(in.Primary().Data), width, height)
	if len(pages) == 0 {
		pages = [][]string{nil}
	}

	doc := &model.Document{}
	for i, lines := range pages {
		doc.Pages = append(doc.Pages, model.Page{
			Index:     i,
			Width:     float64(width),
			Height:    float64(height),
			Content:   []byte(textPageContent(lines, height)),
			Resources: helveticaResources(),
		})
	}

	data, err := model.Encode(doc)
	if err != nil {
		return nil, err
	}
	return &Output{
		Files: []NamedFile{{Name: baseName(in) + ".pdf", Data: data}},
		MIME:  format.PDF.MIME(),
	}, nil
}

func helveticaResources() pdf.Dict {
	return pdf.Dict{
		"Font": pdf.Dict{
			"F1": pdf.Dict{
				"Type":     pdf.Name("Font"),
				"Subtype":  pdf.Name("Type1"),
				"BaseFont": pdf.Name("Helvetica"),
			},
		},
	}
}

// layoutText wraps input into pages of lines. Form feeds force a page
// break; lines wider than the text column wrap at word boundaries.
func layoutText(input string, pageWidth, pageHeight int) [][]string {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\t", "    ")

	linesPerPage := (pageHeight - 2*textMargin) / textLeading
	// Average Helvetica glyph is about half an em wide.
	maxChars := int(float64(pageWidth-2*textMargin) / (textFontSize * 0.5))

	var pages [][]string
	var current []string
	flush := func() {
		pages = append(pages, current)
		current = nil
	}

	for _, chunk := range strings.Split(input, "\f") {
		for _, raw := range strings.Split(chunk, "\n") {
			for _, line := range wrapLine(raw, maxChars) {
				if len(current) >= linesPerPage {
					flush()
				}
				current = append(current, line)
			}
		}
		if len(current) > 0 {
			flush()
		}
	}
	if len(current) > 0 {
		flush()
	}
	return pages
}

// wrapLine breaks a line at word boundaries so it fits the column,
// splitting words longer than the column outright.
func wrapLine(line string, maxChars int) []string {
	if len(line) <= maxChars {
		return []string{line}
	}
	var out []string
	var sb strings.Builder
	for _, word := range strings.Fields(line) {
		for len(word) > maxChars {
			if sb.Len() > 0 {
				out = append(out, sb.String())
				sb.Reset()
			}
			out = append(out, word[:maxChars])
			word = word[maxChars:]
		}
		switch {
		case sb.Len() == 0:
			sb.WriteString(word)
		case sb.Len()+1+len(word) <= maxChars:
			sb.WriteByte(' ')
			sb.WriteString(word)
		default:
			out = append(out, sb.String())
			sb.Reset()
			sb.WriteString(word)
		}
	}
	if sb.Len() > 0 {
		out = append(out, sb.String())
	}
	if len(out) == 0 {
		out = []string{""}
	}
	return out
}

func textPageContent(lines []string, pageHeight int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BT\n/F1 %d Tf\n%d TL\n%d %d Td\n", textFontSize, textLeading, textMargin, pageHeight-textMargin-textFontSize)
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("T*\n")
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", escapeLiteral(line))
	}
	sb.WriteString("ET\n")
	return sb.String()
}

func escapeLiteral(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return r.Replace(s)
}
