package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
	"github.com/tsawler/papermill/text"
)

// docxStrategy converts PDF text to a Word document, one Word
// paragraph per extracted paragraph.
type docxStrategy struct{}

func (*docxStrategy) Kind() Kind                         { return ToDOCX }
func (*docxStrategy) Requires() []capability.Capability  { return nil }
func (*docxStrategy) Validate(in Input, _ Options) error { return requirePDF(in) }

func (s *docxStrategy) Convert(_ context.Context, _ *Env, in Input, opts Options) (*Output, error) {
	doc, err := decodeDoc(in)
	if err != nil {
		return nil, err
	}
	doc, err = selectPages(doc, opts)
	if err != nil {
		return nil, err
	}

	var warnings []string
	var paragraphs []string
	for _, page := range doc.Pages {
		pageText, err := text.PageText(page)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: text extraction failed: %v", page.Index+1, err))
			paragraphs = append(paragraphs, fmt.Sprintf("[page %d could not be converted]", page.Index+1))
			continue
		}
		paragraphs = append(paragraphs, splitParagraphs(pageText)...)
	}

	data, err := buildDOCX(paragraphs, doc.Meta.Title)
	if err != nil {
		return nil, err
	}
	return &Output{
		Files:    []NamedFile{{Name: baseName(in) + ".docx", Data: data}},
		MIME:     format.DOCX.MIME(),
		Warnings: warnings,
	}, nil
}

// splitParagraphs turns extracted page text into paragraphs: blank
// lines separate paragraphs, and the lines inside one paragraph are
// merged with spaces since PDF line breaks are layout, not structure.
func splitParagraphs(pageText string) []string {
	var out []string
	for _, block := range strings.Split(pageText, "\n\n") {
		lines := strings.Split(block, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimSpace(l)
		}
		merged := strings.TrimSpace(strings.Join(lines, " "))
		if merged != "" {
			out = append(out, merged)
		}
	}
	return out
}

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

func buildDOCX(paragraphs []string, title string) ([]byte, error) {
	pkg := newOOXMLPackage()

	pkg.addXML("[Content_Types].xml", `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`+
		`<Default Extension="xml" ContentType="application/xml"/>`+
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`+
		`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`+
		`</Types>`)

	pkg.addXML("_rels/.rels", relationships([][3]string{
		{"rId1", "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument", "word/document.xml"},
		{"rId2", "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", "docProps/core.xml"},
	}))

	pkg.addXML("docProps/core.xml", corePropsXML(title))

	var body strings.Builder
	fmt.Fprintf(&body, `<w:document xmlns:w=%q><w:body>`, wordNS)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		body.WriteString(xmlEscape(p))
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`)
	body.WriteString(`</w:body></w:document>`)
	pkg.addXML("word/document.xml", body.String())

	return pkg.bytes()
}

func corePropsXML(title string) string {
	var sb strings.Builder
	sb.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	if title != "" {
		sb.WriteString(`<dc:title>` + xmlEscape(title) + `</dc:title>`)
	}
	sb.WriteString(`<dc:creator>papermill</dc:creator>`)
	sb.WriteString(`</cp:coreProperties>`)
	return sb.String()
}
