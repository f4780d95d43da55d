package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
	"github.com/tsawler/papermill/model"
)

// textPDF builds a real PDF from plain text via the text-to-pdf
// strategy, giving the PDF-consuming tests genuine input.
func textPDF(t *testing.T, content string) []byte {
	t.Helper()
	s, ok := Lookup(TextToPDF)
	if !ok {
		t.Fatal("text-to-pdf strategy missing")
	}
	out, err := s.Convert(context.Background(), nil, Input{
		Files: []NamedFile{{Name: "input.txt", Data: []byte(content)}},
	}, Options{})
	if err != nil {
		t.Fatalf("building fixture pdf: %v", err)
	}
	return out.Files[0].Data
}

func pdfInput(name string, data []byte) Input {
	return Input{Files: []NamedFile{{Name: name, Data: data}}, Format: format.PDF}
}

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("opening package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening part %s: %v", name, err)
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading part %s: %v", name, err)
		}
		return string(body)
	}
	t.Fatalf("part %s not found in package", name)
	return ""
}

func TestRegistryComplete(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 11 {
		t.Fatalf("registry has %d kinds, want 11", len(kinds))
	}
	for _, k := range kinds {
		s, ok := Lookup(k)
		if !ok {
			t.Errorf("Lookup(%s) missing", k)
			continue
		}
		if s.Kind() != k {
			t.Errorf("strategy for %s reports kind %s", k, s.Kind())
		}
	}
	if _, ok := Lookup(Kind("pdf-to-nothing")); ok {
		t.Error("unknown kind resolved")
	}
}

func TestValidateRejectsNonPDF(t *testing.T) {
	for _, kind := range []Kind{ToDOCX, ToXLSX, ToText, ToHTML, ToXML} {
		s, _ := Lookup(kind)
		err := s.Validate(Input{Files: []NamedFile{{Name: "x.pdf", Data: []byte("not a pdf")}}}, Options{})
		var oe *OptionError
		if !errors.As(err, &oe) {
			t.Errorf("%s: error %v, want *OptionError", kind, err)
		}
	}
}

func TestValidateRasterOptions(t *testing.T) {
	s, _ := Lookup(ToImages)
	in := pdfInput("doc.pdf", textPDF(t, "hello"))

	if err := s.Validate(in, Options{DPI: 150, ImageFormat: format.JPEG}); err != nil {
		t.Errorf("valid options rejected: %v", err)
	}
	var oe *OptionError
	if err := s.Validate(in, Options{DPI: 10}); !errors.As(err, &oe) || oe.Field != "dpi" {
		t.Errorf("low dpi: %v", err)
	}
	if err := s.Validate(in, Options{DPI: 1200}); !errors.As(err, &oe) {
		t.Errorf("high dpi: %v", err)
	}
	if err := s.Validate(in, Options{ImageFormat: format.BMP}); !errors.As(err, &oe) || oe.Field != "image-format" {
		t.Errorf("bad image format: %v", err)
	}
}

func TestTextToPDFAndBack(t *testing.T) {
	const content = "The quick brown fox\njumps over the lazy dog"
	data := textPDF(t, content)

	doc, err := model.Decode(data)
	if err != nil {
		t.Fatalf("decoding produced pdf: %v", err)
	}
	if doc.PageCount() != 1 {
		t.Fatalf("page count = %d, want 1", doc.PageCount())
	}

	s, _ := Lookup(ToText)
	out, err := s.Convert(context.Background(), nil, pdfInput("doc.pdf", data), Options{})
	if err != nil {
		t.Fatalf("to-text: %v", err)
	}
	got := string(out.Files[0].Data)
	if !strings.Contains(got, "The quick brown fox") || !strings.Contains(got, "lazy dog") {
		t.Errorf("extracted text = %q", got)
	}
	if out.MIME != "text/plain" {
		t.Errorf("MIME = %q", out.MIME)
	}
	if out.Files[0].Name != "doc.txt" {
		t.Errorf("output name = %q", out.Files[0].Name)
	}
}

func TestTextToPDFPageBreaks(t *testing.T) {
	data := textPDF(t, "first page\fsecond page")
	doc, err := model.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.PageCount() != 2 {
		t.Errorf("page count = %d, want 2", doc.PageCount())
	}
}

func TestTextToPDFPageSize(t *testing.T) {
	s, _ := Lookup(TextToPDF)
	in := Input{Files: []NamedFile{{Name: "notes.txt", Data: []byte("hello")}}}

	out, err := s.Convert(context.Background(), nil, in, Options{PageSize: "a4"})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	doc, err := model.Decode(out.Files[0].Data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Pages[0].Width != 595 || doc.Pages[0].Height != 842 {
		t.Errorf("page size = %gx%g, want 595x842", doc.Pages[0].Width, doc.Pages[0].Height)
	}

	var oe *OptionError
	if err := s.Validate(in, Options{PageSize: "tabloid"}); !errors.As(err, &oe) || oe.Field != "page-size" {
		t.Errorf("bad page size: %v", err)
	}
}

func TestDOCXOutput(t *testing.T) {
	data := textPDF(t, "Paragraph one with <angle> brackets")
	s, _ := Lookup(ToDOCX)

	out, err := s.Convert(context.Background(), nil, pdfInput("report.pdf", data), Options{})
	if err != nil {
		t.Fatalf("to-docx: %v", err)
	}
	if out.Files[0].Name != "report.docx" {
		t.Errorf("name = %q", out.Files[0].Name)
	}
	body := readZipPart(t, out.Files[0].Data, "word/document.xml")
	if !strings.Contains(body, "Paragraph one with &lt;angle&gt; brackets") {
		t.Errorf("document.xml = %q", body)
	}
	types := readZipPart(t, out.Files[0].Data, "[Content_Types].xml")
	if !strings.Contains(types, "wordprocessingml.document.main") {
		t.Errorf("content types missing main part: %q", types)
	}
}

func TestDOCXPlaceholderForFailedPage(t *testing.T) {
	doc, err := model.Decode(textPDF(t, "good page\fbad page"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	// An unterminated literal string makes page 2 unextractable.
	doc.Pages[1].Content = []byte("BT (never closed Tj ET")
	data, err := model.Encode(doc)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	s, _ := Lookup(ToDOCX)
	out, err := s.Convert(context.Background(), nil, pdfInput("doc.pdf", data), Options{})
	if err != nil {
		t.Fatalf("to-docx: %v", err)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "page 2") {
		t.Errorf("warnings = %v", out.Warnings)
	}
	body := readZipPart(t, out.Files[0].Data, "word/document.xml")
	if !strings.Contains(body, "good page") {
		t.Errorf("healthy page text missing: %q", body)
	}
	if !strings.Contains(body, "[page 2 could not be converted]") {
		t.Errorf("failed page left no placeholder: %q", body)
	}
}

func TestXLSXNoTablesWarns(t *testing.T) {
	data := textPDF(t, "just prose here")
	s, _ := Lookup(ToXLSX)

	out, err := s.Convert(context.Background(), nil, pdfInput("doc.pdf", data), Options{})
	if err != nil {
		t.Fatalf("to-xlsx: %v", err)
	}
	if len(out.Warnings) == 0 {
		t.Error("expected a no-tables warning")
	}
	wb := readZipPart(t, out.Files[0].Data, "xl/workbook.xml")
	if !strings.Contains(wb, "<sheet ") {
		t.Errorf("workbook.xml = %q", wb)
	}
}

func TestXLSXEmptySheetPerTablelessPage(t *testing.T) {
	data := textPDF(t, "prose on page one\fprose on page two")
	s, _ := Lookup(ToXLSX)

	out, err := s.Convert(context.Background(), nil, pdfInput("doc.pdf", data), Options{})
	if err != nil {
		t.Fatalf("to-xlsx: %v", err)
	}
	wb := readZipPart(t, out.Files[0].Data, "xl/workbook.xml")
	if got := strings.Count(wb, "<sheet "); got != 2 {
		t.Fatalf("workbook has %d sheets for a 2-page PDF, want 2:\n%s", got, wb)
	}
	for _, name := range []string{`name="Page 1"`, `name="Page 2"`} {
		if !strings.Contains(wb, name) {
			t.Errorf("workbook.xml missing %s:\n%s", name, wb)
		}
	}
	if got := readZipPart(t, out.Files[0].Data, "xl/worksheets/sheet2.xml"); !strings.Contains(got, "<sheetData>") {
		t.Errorf("second worksheet = %q", got)
	}
	if len(out.Warnings) != 2 {
		t.Errorf("warnings = %v, want one per table-less page", out.Warnings)
	}
}

func TestHTMLOutput(t *testing.T) {
	data := textPDF(t, "Body text & more")
	s, _ := Lookup(ToHTML)

	out, err := s.Convert(context.Background(), nil, pdfInput("doc.pdf", data), Options{})
	if err != nil {
		t.Fatalf("to-html: %v", err)
	}
	got := string(out.Files[0].Data)
	for _, want := range []string{"<!DOCTYPE html>", `<meta charset="utf-8"`, `class="page"`, "Body text &amp; more"} {
		if !strings.Contains(got, want) {
			t.Errorf("html output missing %q:\n%s", want, got)
		}
	}
}

func TestXMLOutput(t *testing.T) {
	data := textPDF(t, "structured line")
	s, _ := Lookup(ToXML)

	out, err := s.Convert(context.Background(), nil, pdfInput("doc.pdf", data), Options{})
	if err != nil {
		t.Fatalf("to-xml: %v", err)
	}

	var parsed xmlDocument
	if err := xml.Unmarshal(out.Files[0].Data, &parsed); err != nil {
		t.Fatalf("output is not well-formed xml: %v", err)
	}
	if len(parsed.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(parsed.Pages))
	}
	page := parsed.Pages[0]
	if page.Number != 1 || page.Width != textPageWidth {
		t.Errorf("page = %+v", page)
	}
	if len(page.Lines) == 0 || !strings.Contains(page.Lines[0].Text, "structured line") {
		t.Errorf("lines = %+v", page.Lines)
	}
}

func buildPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func buildJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImagesToPDF(t *testing.T) {
	s, _ := Lookup(ImagesToPDF)
	in := Input{Files: []NamedFile{
		{Name: "a.png", Data: buildPNG(t, 96, 48)},
		{Name: "b.jpg", Data: buildJPEG(t, 32, 32)},
	}}

	if err := s.Validate(in, Options{}); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	out, err := s.Convert(context.Background(), nil, in, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if out.Files[0].Name != "images.pdf" {
		t.Errorf("name = %q", out.Files[0].Name)
	}

	doc, err := model.Decode(out.Files[0].Data)
	if err != nil {
		t.Fatalf("decoding assembled pdf: %v", err)
	}
	if doc.PageCount() != 2 {
		t.Fatalf("page count = %d, want 2", doc.PageCount())
	}
	// 96 px at 96 DPI is one inch, 72 points.
	if doc.Pages[0].Width != 72 || doc.Pages[0].Height != 36 {
		t.Errorf("page 0 size = %gx%g, want 72x36", doc.Pages[0].Width, doc.Pages[0].Height)
	}
}

func TestImagesToPDFSingleKeepsName(t *testing.T) {
	s, _ := Lookup(ImagesToPDF)
	in := Input{Files: []NamedFile{{Name: "scan.png", Data: buildPNG(t, 10, 10)}}}
	out, err := s.Convert(context.Background(), nil, in, Options{})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if out.Files[0].Name != "scan.pdf" {
		t.Errorf("name = %q", out.Files[0].Name)
	}
}

func TestImagesToPDFEmptyInput(t *testing.T) {
	s, _ := Lookup(ImagesToPDF)
	err := s.Validate(Input{}, Options{})
	var oe *OptionError
	if !errors.As(err, &oe) {
		t.Fatalf("error %v, want *OptionError", err)
	}
}

func TestImagesToPDFRejectsNonImage(t *testing.T) {
	s, _ := Lookup(ImagesToPDF)
	err := s.Validate(Input{Files: []NamedFile{{Name: "doc.pdf", Data: []byte("%PDF-1.7")}}}, Options{})
	var oe *OptionError
	if !errors.As(err, &oe) {
		t.Fatalf("error %v, want *OptionError", err)
	}
}

func TestRequiresDeclarations(t *testing.T) {
	tests := []struct {
		kind Kind
		want []capability.Capability
	}{
		{ToImages, []capability.Capability{capability.Rasterizer}},
		{ToPPTX, []capability.Capability{capability.Rasterizer}},
		{OfficeToPDF, []capability.Capability{capability.OfficeRenderer}},
		{HTMLToPDF, []capability.Capability{capability.Browser}},
		{ToDOCX, nil},
		{ToText, nil},
		{ImagesToPDF, nil},
		{TextToPDF, nil},
	}
	for _, tt := range tests {
		s, _ := Lookup(tt.kind)
		got := s.Requires()
		if len(got) != len(tt.want) {
			t.Errorf("%s: Requires = %v, want %v", tt.kind, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: Requires = %v, want %v", tt.kind, got, tt.want)
			}
		}
	}
}

func TestPagesOptionSelectsPages(t *testing.T) {
	data := textPDF(t, "alpha\fbeta\fgamma")
	s, _ := Lookup(ToText)

	out, err := s.Convert(context.Background(), nil, pdfInput("doc.pdf", data), Options{Pages: "2"})
	if err != nil {
		t.Fatalf("to-text: %v", err)
	}
	got := string(out.Files[0].Data)
	if !strings.Contains(got, "beta") {
		t.Errorf("selected page text = %q", got)
	}
	if strings.Contains(got, "alpha") || strings.Contains(got, "gamma") {
		t.Errorf("unselected pages leaked into %q", got)
	}
}

func TestPagesOptionInvalid(t *testing.T) {
	data := textPDF(t, "only page")
	s, _ := Lookup(ToText)

	_, err := s.Convert(context.Background(), nil, pdfInput("doc.pdf", data), Options{Pages: "5"})
	var oe *OptionError
	if !errors.As(err, &oe) || oe.Field != "pages" {
		t.Fatalf("error %v, want pages *OptionError", err)
	}
}

func TestSplitParagraphs(t *testing.T) {
	got := splitParagraphs("line one\nline two\n\nnext para")
	if len(got) != 2 {
		t.Fatalf("paragraphs = %v", got)
	}
	if got[0] != "line one line two" || got[1] != "next para" {
		t.Errorf("paragraphs = %v", got)
	}
}

func TestWrapLine(t *testing.T) {
	got := wrapLine("aaa bbb ccc", 7)
	want := []string{"aaa bbb", "ccc"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("wrapLine = %v, want %v", got, want)
	}

	long := wrapLine("abcdefghij", 4)
	if len(long) != 3 || long[0] != "abcd" {
		t.Errorf("long word wrap = %v", long)
	}
}

func TestColumnName(t *testing.T) {
	tests := []struct {
		i    int
		want string
	}{{0, "A"}, {25, "Z"}, {26, "AA"}, {27, "AB"}, {51, "AZ"}, {52, "BA"}}
	for _, tt := range tests {
		if got := columnName(tt.i); got != tt.want {
			t.Errorf("columnName(%d) = %q, want %q", tt.i, got, tt.want)
		}
	}
}
