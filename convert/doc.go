// Package convert implements the document conversions: PDF to Word,
// Excel, PowerPoint, images, text, HTML and XML, plus images, Office
// documents, HTML and plain text to PDF.
//
// Each conversion is a Strategy selected by Kind from a fixed
// registry. A strategy declares the external capabilities it cannot
// run without via Requires, checks its input and options in Validate
// without doing work, and performs the conversion in Convert against
// an Env holding the probed capabilities, backends and scratch space.
//
// Conversions that only need the PDF itself (text, HTML, XML, Word,
// Excel output, and image or text input) run in pure Go. Rasterized
// output and Office or browser rendering go through the backend
// package and require the matching capability.
package convert
