package convert

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
	"github.com/tsawler/papermill/model"
	"github.com/tsawler/papermill/text"
)

// extractPages runs text extraction over every page, collecting
// warnings for pages that fail instead of aborting the conversion.
func extractPages(doc *model.Document) (pages []string, warnings []string) {
	for _, page := range doc.Pages {
		pageText, err := text.PageText(page)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: text extraction failed: %v", page.Index+1, err))
			pages = append(pages, "")
			continue
		}
		pages = append(pages, pageText)
	}
	return pages, warnings
}

// textStrategy extracts a PDF's plain text, pages separated by form
// feeds.
type textStrategy struct{}

func (*textStrategy) Kind() Kind                         { return ToText }
func (*textStrategy) Requires() []capability.Capability  { return nil }
func (*textStrategy) Validate(in Input, _ Options) error { return requirePDF(in) }

func (s *textStrategy) Convert(_ context.Context, _ *Env, in Input, opts Options) (*Output, error) {
	doc, err := decodeDoc(in)
	if err != nil {
		return nil, err
	}
	doc, err = selectPages(doc, opts)
	if err != nil {
		return nil, err
	}

	pages, warnings := extractPages(doc)
	var sb strings.Builder
	for i, p := range pages {
		sb.WriteString(p)
		if i+1 < len(pages) {
			sb.WriteString("\n\f\n")
		}
	}
	sb.WriteByte('\n')

	return &Output{
		Files:    []NamedFile{{Name: baseName(in) + ".txt", Data: []byte(sb.String())}},
		MIME:     format.Text.MIME(),
		Warnings: warnings,
	}, nil
}

// htmlStrategy renders a PDF's text as an HTML document, one section
// per page with a paragraph per text block.
type htmlStrategy struct{}

func (*htmlStrategy) Kind() Kind                         { return ToHTML }
func (*htmlStrategy) Requires() []capability.Capability  { return nil }
func (*htmlStrategy) Validate(in Input, _ Options) error { return requirePDF(in) }

func (s *htmlStrategy) Convert(_ context.Context, _ *Env, in Input, opts Options) (*Output, error) {
	doc, err := decodeDoc(in)
	if err != nil {
		return nil, err
	}
	doc, err = selectPages(doc, opts)
	if err != nil {
		return nil, err
	}

	pages, warnings := extractPages(doc)
	data, err := renderHTML(doc.Meta.Title, pages)
	if err != nil {
		return nil, err
	}
	return &Output{
		Files:    []NamedFile{{Name: baseName(in) + ".html", Data: data}},
		MIME:     format.HTML.MIME(),
		Warnings: warnings,
	}, nil
}

// renderHTML builds the output document as a node tree and serializes
// it, so escaping is handled uniformly.
func renderHTML(title string, pages []string) ([]byte, error) {
	elem := func(a atom.Atom, attrs ...html.Attribute) *html.Node {
		return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
	}
	textNode := func(s string) *html.Node {
		return &html.Node{Type: html.TextNode, Data: s}
	}

	root := elem(atom.Html)
	head := elem(atom.Head)
	meta := elem(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"})
	head.AppendChild(meta)
	if title != "" {
		titleNode := elem(atom.Title)
		titleNode.AppendChild(textNode(title))
		head.AppendChild(titleNode)
	}
	root.AppendChild(head)

	body := elem(atom.Body)
	for i, pageText := range pages {
		section := elem(atom.Section,
			html.Attribute{Key: "class", Val: "page"},
			html.Attribute{Key: "data-page", Val: fmt.Sprint(i + 1)})
		for _, para := range splitParagraphs(pageText) {
			p := elem(atom.P)
			p.AppendChild(textNode(para))
			section.AppendChild(p)
		}
		body.AppendChild(section)
	}
	root.AppendChild(body)

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n")
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("rendering html: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// xmlStrategy renders a PDF's structure as XML: pages with their
// geometry and extracted lines with positions.
type xmlStrategy struct{}

func (*xmlStrategy) Kind() Kind                         { return ToXML }
func (*xmlStrategy) Requires() []capability.Capability  { return nil }
func (*xmlStrategy) Validate(in Input, _ Options) error { return requirePDF(in) }

type xmlDocument struct {
	XMLName xml.Name  `xml:"document"`
	Title   string    `xml:"title,attr,omitempty"`
	Pages   []xmlPage `xml:"page"`
}

type xmlPage struct {
	Number   int       `xml:"number,attr"`
	Width    float64   `xml:"width,attr"`
	Height   float64   `xml:"height,attr"`
	Rotation int       `xml:"rotation,attr,omitempty"`
	Lines    []xmlLine `xml:"line"`
}

type xmlLine struct {
	Y    float64 `xml:"y,attr"`
	Text string  `xml:",chardata"`
}

func (s *xmlStrategy) Convert(_ context.Context, _ *Env, in Input, opts Options) (*Output, error) {
	doc, err := decodeDoc(in)
	if err != nil {
		return nil, err
	}
	doc, err = selectPages(doc, opts)
	if err != nil {
		return nil, err
	}

	out := xmlDocument{Title: doc.Meta.Title}
	var warnings []string
	extractor := text.NewExtractor()
	for _, page := range doc.Pages {
		xp := xmlPage{
			Number:   page.Index + 1,
			Width:    page.Width,
			Height:   page.Height,
			Rotation: page.Rotation,
		}
		frags, err := extractor.ExtractPage(page)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: text extraction failed: %v", page.Index+1, err))
		} else {
			for _, line := range text.GroupLines(frags) {
				xp.Lines = append(xp.Lines, xmlLine{Y: line.Y, Text: line.Text()})
			}
		}
		out.Pages = append(out.Pages, xp)
	}

	data, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling xml: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')

	return &Output{
		Files:    []NamedFile{{Name: baseName(in) + ".xml", Data: data}},
		MIME:     format.XML.MIME(),
		Warnings: warnings,
	}, nil
}
