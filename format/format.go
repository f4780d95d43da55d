// Package format identifies document and image formats by extension
// and by content, and maps them to MIME types.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Format identifies a file format the engine can read or produce.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF is a PDF document.
	PDF
	// DOCX is a Microsoft Word document.
	DOCX
	// XLSX is a Microsoft Excel workbook.
	XLSX
	// PPTX is a Microsoft PowerPoint presentation.
	PPTX
	// ODT is an OpenDocument Text document.
	ODT
	// HTML is an HTML document.
	HTML
	// XML is a generic XML document.
	XML
	// Text is plain text.
	Text
	// PNG is a PNG image.
	PNG
	// JPEG is a JPEG image.
	JPEG
	// TIFF is a TIFF image.
	TIFF
	// BMP is a Windows bitmap image.
	BMP
	// ZIP is a generic ZIP archive, used to package multi-file
	// conversion output.
	ZIP
)

// String returns the format's conventional upper-case name.
func (f Format) String() string {
	if s, ok := formatInfo[f]; ok {
		return s.name
	}
	return "Unknown"
}

// Extension returns the format's typical file extension, with the
// leading dot.
func (f Format) Extension() string {
	if s, ok := formatInfo[f]; ok {
		return s.ext
	}
	return ""
}

// MIME returns the format's media type.
func (f Format) MIME() string {
	if s, ok := formatInfo[f]; ok {
		return s.mime
	}
	return "application/octet-stream"
}

// IsImage reports whether the format is a raster image.
func (f Format) IsImage() bool {
	switch f {
	case PNG, JPEG, TIFF, BMP:
		return true
	}
	return false
}

// IsOffice reports whether the format is an Office document that
// needs an external renderer to become a PDF.
func (f Format) IsOffice() bool {
	switch f {
	case DOCX, XLSX, PPTX, ODT:
		return true
	}
	return false
}

var formatInfo = map[Format]struct {
	name, ext, mime string
}{
	PDF:  {"PDF", ".pdf", "application/pdf"},
	DOCX: {"DOCX", ".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	XLSX: {"XLSX", ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	PPTX: {"PPTX", ".pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	ODT:  {"ODT", ".odt", "application/vnd.oasis.opendocument.text"},
	HTML: {"HTML", ".html", "text/html"},
	XML:  {"XML", ".xml", "application/xml"},
	Text: {"Text", ".txt", "text/plain"},
	PNG:  {"PNG", ".png", "image/png"},
	JPEG: {"JPEG", ".jpg", "image/jpeg"},
	TIFF: {"TIFF", ".tiff", "image/tiff"},
	BMP:  {"BMP", ".bmp", "image/bmp"},
	ZIP:  {"ZIP", ".zip", "application/zip"},
}

// Detect determines a format from the filename extension alone.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	case ".xlsx":
		return XLSX
	case ".pptx":
		return PPTX
	case ".odt":
		return ODT
	case ".html", ".htm":
		return HTML
	case ".xml":
		return XML
	case ".txt":
		return Text
	case ".png":
		return PNG
	case ".jpg", ".jpeg":
		return JPEG
	case ".tif", ".tiff":
		return TIFF
	case ".bmp":
		return BMP
	case ".zip":
		return ZIP
	default:
		return Unknown
	}
}

// Magic signatures checked by DetectFromMagic, longest first where
// prefixes collide.
var magics = []struct {
	prefix []byte
	format Format
}{
	{[]byte("%PDF"), PDF},
	{[]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, PNG},
	{[]byte{0xFF, 0xD8, 0xFF}, JPEG},
	{[]byte{'I', 'I', 0x2A, 0x00}, TIFF},
	{[]byte{'M', 'M', 0x00, 0x2A}, TIFF},
	{[]byte{'B', 'M'}, BMP},
}

// DetectFromMagic identifies a format from leading content bytes. ZIP
// containers come back as ZIP; use DetectFromReader to distinguish
// the Office formats stored inside them.
func DetectFromMagic(data []byte) Format {
	for _, m := range magics {
		if bytes.HasPrefix(data, m.prefix) {
			return m.format
		}
	}
	if bytes.HasPrefix(data, []byte{'P', 'K', 0x03, 0x04}) {
		return ZIP
	}
	if looksLikeHTML(data) {
		return HTML
	}
	return Unknown
}

func looksLikeHTML(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return false
	}
	head := trimmed
	if len(head) > 512 {
		head = head[:512]
	}
	upper := strings.ToUpper(string(head))
	if strings.HasPrefix(upper, "<!DOCTYPE HTML") || strings.HasPrefix(upper, "<HTML") {
		return true
	}
	return strings.HasPrefix(upper, "<?XML") && strings.Contains(upper, "<HTML")
}

// DetectFromReader identifies a format from content, opening ZIP
// containers to tell the Office formats apart.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	head := make([]byte, 512)
	n, err := r.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	head = head[:n]

	f := DetectFromMagic(head)
	if f != ZIP {
		return f, nil
	}
	return detectZIPFormat(r, size)
}

// detectZIPFormat inspects a ZIP archive's entries to identify the
// Office format stored inside.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	for _, f := range zr.File {
		if f.Name != "mimetype" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, _ := io.ReadAll(io.LimitReader(rc, 256))
		rc.Close()
		if strings.Contains(string(data), "opendocument.text") {
			return ODT, nil
		}
	}

	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return DOCX, nil
		case strings.HasPrefix(f.Name, "xl/"):
			return XLSX, nil
		case strings.HasPrefix(f.Name, "ppt/"):
			return PPTX, nil
		}
	}
	return ZIP, nil
}
