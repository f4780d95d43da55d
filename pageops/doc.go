// Package pageops implements page-level transforms on the document
// model: extraction (which doubles as reordering), rotation, removal,
// merging and splitting.
//
// Every operation is a pure function from a [model.Document] to a new
// one; input documents are never modified. Invalid arguments —
// out-of-range indices, rotations that are not quarter turns, or a
// removal that would leave no pages — are reported as
// [*OperationError] values rather than being silently adjusted.
//
//	subset, err := pageops.Extract(doc, []int{4, 2, 0})
//
// [ParseRanges] converts the "1-3,7,10-12" selections users type into
// the 0-based index slices the operations take.
package pageops
