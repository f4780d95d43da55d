// Package backend wraps the external tools some conversions delegate
// to: LibreOffice for Office-to-PDF, poppler's pdftoppm for
// rasterization, and a headless browser for printing HTML to PDF.
//
// Each backend takes a context that bounds the external process;
// expiry kills the process and surfaces as an *Error with Timeout set.
// The Runner interface isolates process spawning so the wrappers can
// be tested without the tools installed.
package backend
