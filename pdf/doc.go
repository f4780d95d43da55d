// Package pdf implements the PDF syntax layer: the object model, a
// tokenizer, a file parser, stream filters, and a file writer.
//
// # Objects
//
// Every value in a PDF file is represented by a type implementing
// [Object]: [Null], [Bool], [Int], [Real], [String], [Name], [Array],
// [Dict], [Stream], and [Ref] for indirect references.
//
// # Reading
//
// [Parse] reads a complete file from a byte slice:
//
//	f, err := pdf.Parse(data)
//	if err != nil {
//	    // handle error
//	}
//	catalog, err := f.Catalog()
//
// The parser follows the cross-reference chain (both classic tables and
// xref streams, including compressed objects in object streams) and
// falls back to scanning the file for "N G obj" markers when the xref
// machinery is damaged. Encrypted files are rejected with
// [ErrEncrypted].
//
// # Writing
//
// [Writer] builds a new file from scratch:
//
//	w := pdf.NewWriter()
//	contents := w.AddStream(nil, contentBytes)
//	...
//	w.SetRoot(catalogRef)
//	out, err := w.Bytes()
//
// The writer always emits a classic xref table, which every PDF
// consumer understands.
//
// # Filters
//
// Stream data is decoded via [Stream.Decode], which understands
// FlateDecode (with PNG predictors), ASCIIHexDecode, ASCII85Decode and
// RunLengthDecode. Image codecs (DCTDecode, JPXDecode) pass through
// unchanged: the encoded bytes are the image.
package pdf
