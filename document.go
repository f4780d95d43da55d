package papermill

import (
	"github.com/tsawler/papermill/model"
	"github.com/tsawler/papermill/pageops"
	"github.com/tsawler/papermill/text"
)

// Document wraps a decoded PDF for fluent page manipulation. Each
// operation returns a new Document, leaving the receiver untouched;
// errors accumulate and surface at the first terminal call, so chains
// stay readable:
//
//	out, err := doc.ExtractPages(2, 0).Rotate(90).Bytes()
type Document struct {
	doc *model.Document
	err error
}

// Open decodes PDF data into a Document.
func Open(data []byte) (*Document, error) {
	doc, err := model.Decode(data)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// FromModel wraps an already-decoded document.
func FromModel(doc *model.Document) *Document {
	return &Document{doc: doc}
}

// Err returns the first error accumulated by the chain.
func (d *Document) Err() error { return d.err }

// PageCount returns the number of pages, or 0 after a chain error.
func (d *Document) PageCount() int {
	if d.err != nil {
		return 0
	}
	return d.doc.PageCount()
}

// Model returns the underlying document, or nil after a chain error.
func (d *Document) Model() *model.Document {
	if d.err != nil {
		return nil
	}
	return d.doc
}

func (d *Document) apply(op func(*model.Document) (*model.Document, error)) *Document {
	if d.err != nil {
		return d
	}
	next, err := op(d.doc)
	if err != nil {
		return &Document{err: err}
	}
	return &Document{doc: next}
}

// ExtractPages keeps only the pages at the given zero-based indices,
// in the order given. Repeating an index duplicates the page.
func (d *Document) ExtractPages(indices ...int) *Document {
	return d.apply(func(doc *model.Document) (*model.Document, error) {
		return pageops.Extract(doc, indices)
	})
}

// ExtractRange keeps the pages named by a 1-based range spec such as
// "1-3,7".
func (d *Document) ExtractRange(spec string) *Document {
	return d.apply(func(doc *model.Document) (*model.Document, error) {
		indices, err := pageops.ParseRanges(spec, doc.PageCount())
		if err != nil {
			return nil, err
		}
		return pageops.Extract(doc, indices)
	})
}

// Rotate turns every page clockwise by delta degrees, which must be a
// multiple of 90.
func (d *Document) Rotate(delta int) *Document {
	return d.apply(func(doc *model.Document) (*model.Document, error) {
		return pageops.Rotate(doc, nil, delta)
	})
}

// RotatePages turns the pages at the given zero-based indices
// clockwise by delta degrees.
func (d *Document) RotatePages(delta int, indices ...int) *Document {
	return d.apply(func(doc *model.Document) (*model.Document, error) {
		return pageops.Rotate(doc, indices, delta)
	})
}

// RemovePages drops the pages at the given zero-based indices.
// Removing every page is an error.
func (d *Document) RemovePages(indices ...int) *Document {
	return d.apply(func(doc *model.Document) (*model.Document, error) {
		return pageops.Remove(doc, indices)
	})
}

// Split returns one single-page Document per page.
func (d *Document) Split() ([]*Document, error) {
	if d.err != nil {
		return nil, d.err
	}
	parts := pageops.Split(d.doc)
	out := make([]*Document, len(parts))
	for i, p := range parts {
		out[i] = &Document{doc: p}
	}
	return out, nil
}

// Merge concatenates documents in argument order.
func Merge(docs ...*Document) (*Document, error) {
	models := make([]*model.Document, 0, len(docs))
	for _, d := range docs {
		if d.err != nil {
			return nil, d.err
		}
		models = append(models, d.doc)
	}
	merged, err := pageops.Merge(models...)
	if err != nil {
		return nil, err
	}
	return &Document{doc: merged}, nil
}

// Text extracts the document's plain text in reading order, pages
// separated by blank lines.
func (d *Document) Text() (string, error) {
	if d.err != nil {
		return "", d.err
	}
	var out []byte
	for i, page := range d.doc.Pages {
		pageText, err := text.PageText(page)
		if err != nil {
			return "", err
		}
		if i > 0 {
			out = append(out, '\n', '\n')
		}
		out = append(out, pageText...)
	}
	return string(out), nil
}

// Bytes serializes the document back to PDF.
func (d *Document) Bytes() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	return model.Encode(d.doc)
}
