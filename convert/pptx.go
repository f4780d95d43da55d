package convert

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tsawler/papermill/capability"
	"github.com/tsawler/papermill/format"
	"github.com/tsawler/papermill/pageops"
)

// pptxStrategy converts a PDF to a PowerPoint deck. Each page is
// rasterized and placed as a full-bleed picture on its own slide,
// which preserves the page's appearance exactly at the cost of
// editability.
type pptxStrategy struct{}

func (*pptxStrategy) Kind() Kind { return ToPPTX }

func (*pptxStrategy) Requires() []capability.Capability {
	return []capability.Capability{capability.Rasterizer}
}

func (*pptxStrategy) Validate(in Input, opts Options) error {
	if err := requirePDF(in); err != nil {
		return err
	}
	return validateRasterOptions(opts)
}

func (s *pptxStrategy) Convert(ctx context.Context, env *Env, in Input, opts Options) (*Output, error) {
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

	var slides [][]byte
	for _, path := range files.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading rendered slide: %w", err)
		}
		slides = append(slides, data)
	}
	if selected != nil {
		picked := make([][]byte, 0, len(selected))
		for _, i := range selected {
			if i >= len(slides) {
				return nil, fmt.Errorf("rasterizer produced %d pages, expected page %d", len(slides), i+1)
			}
			picked = append(picked, slides[i])
		}
		slides = picked
	}

	data, err := buildPPTX(slides, opts.imageFormat())
	if err != nil {
		return nil, err
	}
	return &Output{
		Files: []NamedFile{{Name: baseName(in) + ".pptx", Data: data}},
		MIME:  format.PPTX.MIME(),
	}, nil
}

// Slide geometry in EMUs: 10 x 7.5 inches, 914400 EMU per inch.
const (
	slideWidthEMU  = 9144000
	slideHeightEMU = 6858000
)

const (
	presNS    = "http://schemas.openxmlformats.org/presentationml/2006/main"
	drawingNS = "http://schemas.openxmlformats.org/drawingml/2006/main"
)

func buildPPTX(slides [][]byte, imgFormat format.Format) ([]byte, error) {
	pkg := newOOXMLPackage()
	ext := strings.TrimPrefix(imgFormat.Extension(), ".")

	var types strings.Builder
	types.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>`)
	fmt.Fprintf(&types, `<Default Extension=%q ContentType=%q/>`, ext, imgFormat.MIME())
	types.WriteString(
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
			`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>` +
			`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	for i := range slides {
		fmt.Fprintf(&types, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
	}
	types.WriteString(`</Types>`)
	pkg.addXML("[Content_Types].xml", types.String())

	pkg.addXML("_rels/.rels", relationships([][3]string{
		{"rId1", relNS + "/officeDocument", "ppt/presentation.xml"},
	}))

	var pres strings.Builder
	fmt.Fprintf(&pres, `<p:presentation xmlns:p=%q xmlns:a=%q xmlns:r=%q>`, presNS, drawingNS, relNS)
	pres.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rIdM"/></p:sldMasterIdLst>`)
	pres.WriteString(`<p:sldIdLst>`)
	presRels := [][3]string{
		{"rIdM", relNS + "/slideMaster", "slideMasters/slideMaster1.xml"},
	}
	for i := range slides {
		fmt.Fprintf(&pres, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+1)
		presRels = append(presRels, [3]string{
			fmt.Sprintf("rId%d", i+1),
			relNS + "/slide",
			fmt.Sprintf("slides/slide%d.xml", i+1),
		})
	}
	pres.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&pres, `<p:sldSz cx="%d" cy="%d"/>`, slideWidthEMU, slideHeightEMU)
	pres.WriteString(`</p:presentation>`)
	pkg.addXML("ppt/presentation.xml", pres.String())
	pkg.addXML("ppt/_rels/presentation.xml.rels", relationships(presRels))

	pkg.addXML("ppt/slideMasters/slideMaster1.xml", slideMasterXML())
	pkg.addXML("ppt/slideMasters/_rels/slideMaster1.xml.rels", relationships([][3]string{
		{"rId1", relNS + "/slideLayout", "../slideLayouts/slideLayout1.xml"},
	}))
	pkg.addXML("ppt/slideLayouts/slideLayout1.xml", slideLayoutXML())
	pkg.addXML("ppt/slideLayouts/_rels/slideLayout1.xml.rels", relationships([][3]string{
		{"rId1", relNS + "/slideMaster", "../slideMasters/slideMaster1.xml"},
	}))

	for i, img := range slides {
		pkg.add(fmt.Sprintf("ppt/media/image%d.%s", i+1, ext), img)
		pkg.addXML(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slideXML(i+1))
		pkg.addXML(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), relationships([][3]string{
			{"rId1", relNS + "/slideLayout", "../slideLayouts/slideLayout1.xml"},
			{"rId2", relNS + "/image", fmt.Sprintf("../media/image%d.%s", i+1, ext)},
		}))
	}

	return pkg.bytes()
}

func emptyShapeTree() string {
	return `<p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr/>` +
		`</p:spTree></p:cSld>`
}

func slideMasterXML() string {
	return fmt.Sprintf(`<p:sldMaster xmlns:p=%q xmlns:a=%q xmlns:r=%q>%s`+
		`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`+
		`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>`+
		`</p:sldMaster>`, presNS, drawingNS, relNS, emptyShapeTree())
}

func slideLayoutXML() string {
	return fmt.Sprintf(`<p:sldLayout xmlns:p=%q xmlns:a=%q xmlns:r=%q type="blank">%s</p:sldLayout>`,
		presNS, drawingNS, relNS, emptyShapeTree())
}

// slideXML renders one slide holding a single picture stretched to the
// full slide area.
func slideXML(n int) string {
	return fmt.Sprintf(`<p:sld xmlns:p=%q xmlns:a=%q xmlns:r=%q>`+
		`<p:cSld><p:spTree>`+
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`+
		`<p:grpSpPr/>`+
		`<p:pic>`+
		`<p:nvPicPr><p:cNvPr id="2" name="Page %d"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
		`<p:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
		`<p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`+
		`</p:pic>`+
		`</p:spTree></p:cSld>`+
		`</p:sld>`, presNS, drawingNS, relNS, n, slideWidthEMU, slideHeightEMU)
}
