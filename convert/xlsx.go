package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
	"github.com/tsawler/papermill/tables"
	"github.com/tsawler/papermill/text"
)

// xlsxStrategy converts a PDF's detected tables to an Excel workbook,
// one worksheet per table. A page with no detected tables still
// contributes an empty worksheet, with a warning, so every selected
// page is accounted for in the workbook.
type xlsxStrategy struct{}

func (*xlsxStrategy) Kind() Kind                         { return ToXLSX }
func (*xlsxStrategy) Requires() []capability.Capability  { return nil }
func (*xlsxStrategy) Validate(in Input, _ Options) error { return requirePDF(in) }

func (s *xlsxStrategy) Convert(_ context.Context, _ *Env, in Input, opts Options) (*Output, error) {
	doc, err := decodeDoc(in)
	if err != nil {
		return nil, err
	}
	doc, err = selectPages(doc, opts)
	if err != nil {
		return nil, err
	}

	var warnings []string
	var sheets []sheet
	extractor := text.NewExtractor()
	for _, page := range doc.Pages {
		frags, err := extractor.ExtractPage(page)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: text extraction failed: %v", page.Index+1, err))
			sheets = append(sheets, sheet{name: fmt.Sprintf("Page %d", page.Index+1)})
			continue
		}
		detected := tables.Detect(frags)
		if len(detected) == 0 {
			warnings = append(warnings, fmt.Sprintf("page %d: no tables detected", page.Index+1))
			sheets = append(sheets, sheet{name: fmt.Sprintf("Page %d", page.Index+1)})
			continue
		}
		for ti, tab := range detected {
			sheets = append(sheets, sheet{
				name: fmt.Sprintf("Page %d Table %d", page.Index+1, ti+1),
				rows: tab.Rows,
			})
		}
	}

	data, err := buildXLSX(sheets)
	if err != nil {
		return nil, err
	}
	return &Output{
		Files:    []NamedFile{{Name: baseName(in) + ".xlsx", Data: data}},
		MIME:     format.XLSX.MIME(),
		Warnings: warnings,
	}, nil
}

type sheet struct {
	name string
	rows [][]string
}

const (
	ssNS  = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

func buildXLSX(sheets []sheet) ([]byte, error) {
	pkg := newOOXMLPackage()

	var types strings.Builder
	types.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>`)
	for i := range sheets {
		fmt.Fprintf(&types, `<Override PartName="/xl/worksheets/sheet%d.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>`, i+1)
	}
	types.WriteString(`</Types>`)
	pkg.addXML("[Content_Types].xml", types.String())

	pkg.addXML("_rels/.rels", relationships([][3]string{
		{"rId1", relNS + "/officeDocument", "xl/workbook.xml"},
	}))

	var wb strings.Builder
	fmt.Fprintf(&wb, `<workbook xmlns=%q xmlns:r=%q><sheets>`, ssNS, relNS)
	var wbRels [][3]string
	for i, sh := range sheets {
		fmt.Fprintf(&wb, `<sheet name=%q sheetId="%d" r:id="rId%d"/>`, xmlEscape(sh.name), i+1, i+1)
		wbRels = append(wbRels, [3]string{
			fmt.Sprintf("rId%d", i+1),
			relNS + "/worksheet",
			fmt.Sprintf("worksheets/sheet%d.xml", i+1),
		})
	}
	wb.WriteString(`</sheets></workbook>`)
	pkg.addXML("xl/workbook.xml", wb.String())
	pkg.addXML("xl/_rels/workbook.xml.rels", relationships(wbRels))

	for i, sh := range sheets {
		pkg.addXML(fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1), worksheetXML(sh.rows))
	}

	return pkg.bytes()
}

// worksheetXML renders rows as inline-string cells, which avoids a
// shared-strings part.
func worksheetXML(rows [][]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<worksheet xmlns=%q><sheetData>`, ssNS)
	for ri, row := range rows {
		fmt.Fprintf(&sb, `<row r="%d">`, ri+1)
		for ci, cell := range row {
			if cell == "" {
				continue
			}
			fmt.Fprintf(&sb, `<c r="%s%d" t="inlineStr"><is><t xml:space="preserve">%s</t></is></c>`,
				columnName(ci), ri+1, xmlEscape(cell))
		}
		sb.WriteString(`</row>`)
	}
	sb.WriteString(`</sheetData></worksheet>`)
	return sb.String()
}

// columnName converts a zero-based column index to spreadsheet
// letters (0 -> A, 25 -> Z, 26 -> AA).
func columnName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}
