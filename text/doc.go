// Package text extracts positioned text from PDF page content
// streams.
//
// The Extractor walks a page's content stream tracking the text
// positioning operators, producing Fragments with user-space
// coordinates. GroupLines clusters fragments into baselines and
// PageText assembles them into plain text in reading order, with
// paragraph breaks where the vertical gap between lines widens.
//
// String bytes are decoded to UTF-8 (UTF-16BE when marked, WinAnsi
// otherwise) and NFC-normalized before they reach callers.
package text
