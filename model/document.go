package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/tsawler/papermill/pdf"
)

// Document is the in-memory representation of a PDF: an ordered
// sequence of pages plus document metadata. A Document is never
// mutated in place; page operations build new values.
type Document struct {
	Pages []Page
	Meta  Metadata

	id string
}

// Page is a single page of a Document.
type Page struct {
	Index     int     // 0-based, unique within its Document
	Width     float64 // in points
	Height    float64 // in points
	Rotation  int     // one of 0, 90, 180, 270
	Content   []byte  // decoded content stream
	Resources pdf.Dict
}

// Metadata holds document-level information from the Info dictionary.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
}

// ID returns the document identity: the hex SHA-256 of the source
// bytes for decoded documents, or a structural fingerprint for
// documents produced by page operations. Documents assembled by hand
// have no stored identity, so their fingerprint is computed on each
// call rather than cached; Documents are shared between goroutines
// and must never be written after construction.
func (d *Document) ID() string {
	if d.id != "" {
		return d.id
	}
	return d.fingerprint()
}

func (d *Document) fingerprint() string {
	h := sha256.New()
	var hdr [20]byte
	for _, p := range d.Pages {
		binary.LittleEndian.PutUint32(hdr[0:], uint32(p.Rotation))
		binary.LittleEndian.PutUint64(hdr[4:], uint64(p.Width*100))
		binary.LittleEndian.PutUint64(hdr[12:], uint64(p.Height*100))
		h.Write(hdr[:])
		h.Write(p.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.Pages) }

// WithPages returns a new Document holding the given pages, reindexed
// from zero. Metadata carries over; identity is recomputed before the
// new Document is published, keeping it free of later writes.
func (d *Document) WithPages(pages []Page) *Document {
	out := &Document{
		Pages: make([]Page, len(pages)),
		Meta:  d.Meta,
	}
	copy(out.Pages, pages)
	for i := range out.Pages {
		out.Pages[i].Index = i
	}
	out.id = out.fingerprint()
	return out
}

// NormalizeRotation maps an arbitrary degree value onto the canonical
// {0, 90, 180, 270} set. Values that are not a multiple of 90 are
// rounded down to the nearest quarter turn.
func NormalizeRotation(deg int) int {
	deg = ((deg % 360) + 360) % 360
	return deg - deg%90
}

// Equal reports structural equality: same page count and order, with
// matching rotation, geometry and content bytes per page. Metadata and
// resource dictionaries are not part of structural identity.
func Equal(a, b *Document) bool {
	if a.PageCount() != b.PageCount() {
		return false
	}
	for i := range a.Pages {
		pa, pb := a.Pages[i], b.Pages[i]
		if pa.Rotation != pb.Rotation {
			return false
		}
		if pa.Width != pb.Width || pa.Height != pb.Height {
			return false
		}
		if !bytes.Equal(pa.Content, pb.Content) {
			return false
		}
	}
	return true
}
