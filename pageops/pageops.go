package pageops

import (
	"fmt"

	"github.com/tsawler/papermill/model"
)

// OperationError reports a page operation applied with invalid
// arguments: an out-of-range index, a rotation that is not a quarter
// turn, or a removal that would leave no pages.
type OperationError struct {
	Op     string
	Reason string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Extract returns a new Document containing exactly the pages named by
// indices, in the order given. The caller's order is authoritative, so
// Extract doubles as reordering. An out-of-range index is an error,
// never a silent skip; an empty index list is an error because a PDF
// must have at least one page.
func Extract(doc *model.Document, indices []int) (*model.Document, error) {
	if len(indices) == 0 {
		return nil, &OperationError{Op: "extract", Reason: "no pages selected"}
	}
	pages := make([]model.Page, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= doc.PageCount() {
			return nil, &OperationError{
				Op:     "extract",
				Reason: fmt.Sprintf("page index %d out of range [0, %d)", idx, doc.PageCount()),
			}
		}
		pages = append(pages, doc.Pages[idx])
	}
	return doc.WithPages(pages), nil
}

// Rotate returns a new Document with delta degrees added to the
// rotation of each targeted page, normalized onto {0, 90, 180, 270}.
// A nil or empty index list targets every page. Delta must be a
// multiple of 90.
func Rotate(doc *model.Document, indices []int, delta int) (*model.Document, error) {
	if delta%90 != 0 {
		return nil, &OperationError{
			Op:     "rotate",
			Reason: fmt.Sprintf("delta %d is not a multiple of 90", delta),
		}
	}

	targets := make(map[int]bool, len(indices))
	if len(indices) == 0 {
		for i := 0; i < doc.PageCount(); i++ {
			targets[i] = true
		}
	} else {
		for _, idx := range indices {
			if idx < 0 || idx >= doc.PageCount() {
				return nil, &OperationError{
					Op:     "rotate",
					Reason: fmt.Sprintf("page index %d out of range [0, %d)", idx, doc.PageCount()),
				}
			}
			targets[idx] = true
		}
	}

	pages := make([]model.Page, doc.PageCount())
	copy(pages, doc.Pages)
	for i := range pages {
		if targets[i] {
			pages[i].Rotation = model.NormalizeRotation(pages[i].Rotation + delta)
		}
	}
	return doc.WithPages(pages), nil
}

// Remove returns a new Document with the named pages excluded.
// Removing nothing is a no-op copy; removing every page is an error
// because a PDF must retain at least one page.
func Remove(doc *model.Document, indices []int) (*model.Document, error) {
	drop := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= doc.PageCount() {
			return nil, &OperationError{
				Op:     "remove",
				Reason: fmt.Sprintf("page index %d out of range [0, %d)", idx, doc.PageCount()),
			}
		}
		drop[idx] = true
	}
	if len(drop) == doc.PageCount() && doc.PageCount() > 0 {
		return nil, &OperationError{Op: "remove", Reason: "removing all pages would leave an empty document"}
	}

	pages := make([]model.Page, 0, doc.PageCount()-len(drop))
	for i, p := range doc.Pages {
		if !drop[i] {
			pages = append(pages, p)
		}
	}
	return doc.WithPages(pages), nil
}

// Merge concatenates the pages of docs into one Document, in argument
// order. At least one input document is required; metadata is taken
// from the first.
func Merge(docs ...*model.Document) (*model.Document, error) {
	if len(docs) == 0 {
		return nil, &OperationError{Op: "merge", Reason: "no input documents"}
	}
	var pages []model.Page
	for _, d := range docs {
		pages = append(pages, d.Pages...)
	}
	if len(pages) == 0 {
		return nil, &OperationError{Op: "merge", Reason: "input documents have no pages"}
	}
	return docs[0].WithPages(pages), nil
}

// Split returns one single-page Document per page of doc, in page
// order.
func Split(doc *model.Document) []*model.Document {
	out := make([]*model.Document, doc.PageCount())
	for i := range doc.Pages {
		out[i] = doc.WithPages(doc.Pages[i : i+1])
	}
	return out
}
