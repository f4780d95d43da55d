package papermill

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsawler/papermill/convert"
	"github.com/tsawler/papermill/format"
)

// Result is a finished conversion: the produced artifacts, their
// type, any warnings, and the state trace.
type Result struct {
	Files    []convert.NamedFile
	MIME     string
	Warnings []Warning
	States   []State
	// Err holds the failure when the trace ends in StateFailed. The
	// same error is returned by Engine.Convert.
	Err error
}

// Final returns the terminal state, or empty when the trace is empty.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}

// Bytes returns the result as a single byte slice: the artifact
// itself for single-file output, or a ZIP archive holding every
// artifact when the conversion produced several.
func (r *Result) Bytes() ([]byte, error) {
	switch len(r.Files) {
	case 0:
		return nil, fmt.Errorf("result has no artifacts")
	case 1:
		return r.Files[0].Data, nil
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range r.Files {
		w, err := zw.Create(f.Name)
		if err != nil {
			return nil, fmt.Errorf("packaging %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("packaging %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("packaging result: %w", err)
	}
	return buf.Bytes(), nil
}

// PackagedMIME returns the media type of Bytes' output: the artifact
// type for single-file results, application/zip otherwise.
func (r *Result) PackagedMIME() string {
	if len(r.Files) > 1 {
		return format.ZIP.MIME()
	}
	return r.MIME
}

// WriteToFile writes Bytes to path, creating parent directories.
func (r *Result) WriteToFile(path string) error {
	data, err := r.Bytes()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
