package convert

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// ooxmlPackage accumulates the parts of an Office Open XML container.
// Parts are written in insertion order; [Content_Types].xml must be
// the first part added.
type ooxmlPackage struct {
	buf bytes.Buffer
	zw  *zip.Writer
	err error
}

func newOOXMLPackage() *ooxmlPackage {
	p := &ooxmlPackage{}
	p.zw = zip.NewWriter(&p.buf)
	return p
}

func (p *ooxmlPackage) add(name string, data []byte) {
	if p.err != nil {
		return
	}
	w, err := p.zw.Create(name)
	if err != nil {
		p.err = fmt.Errorf("creating part %s: %w", name, err)
		return
	}
	if _, err := w.Write(data); err != nil {
		p.err = fmt.Errorf("writing part %s: %w", name, err)
	}
}

func (p *ooxmlPackage) addXML(name, body string) {
	p.add(name, []byte(xml.Header+body))
}

func (p *ooxmlPackage) bytes() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	if err := p.zw.Close(); err != nil {
		return nil, fmt.Errorf("closing package: %w", err)
	}
	return p.buf.Bytes(), nil
}

// xmlEscape escapes text for inclusion in an XML element body.
func xmlEscape(s string) string {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(s)); err != nil {
		return s
	}
	return sb.String()
}

// relationships renders a .rels part from id/type/target triples.
func relationships(rels [][3]string) string {
	var sb strings.Builder
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		fmt.Fprintf(&sb, `<Relationship Id=%q Type=%q Target=%q/>`, r[0], r[1], r[2])
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}
