// Package papermill converts documents between formats and
// manipulates PDF pages.
//
// The Engine runs conversions selected by kind, probing the
// environment once for the optional external backends (an office
// renderer, a PDF rasterizer, a headless browser) and refusing up
// front any conversion whose backend is absent:
//
//	eng := papermill.New()
//	res, err := eng.Convert(ctx, papermill.Request{
//	    Kind:  convert.ToDOCX,
//	    Input: papermill.FileInput("report.pdf", data),
//	})
//
// Page manipulation uses the fluent Document API:
//
//	doc, err := papermill.Open(data)
//	out, err := doc.ExtractPages(0, 2).Rotate(90).Bytes()
//
// Conversions that only read the PDF run in pure Go; see the convert
// package for the full catalog.
package papermill

// Must wraps a call returning (T, error) and panics on error. It is
// intended for scripts and tests where error handling would be
// cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
