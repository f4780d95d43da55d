package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Office converts Office documents to PDF through a headless
// LibreOffice process.
type Office struct {
	// Binary is the soffice executable path, normally taken from the
	// capability probe.
	Binary string
	Runner Runner
}

// NewOffice returns an Office backend using the given soffice binary
// and the real process runner.
func NewOffice(binary string) *Office {
	return &Office{Binary: binary, Runner: ExecRunner{}}
}

// ToPDF converts the document at input into a PDF written inside
// outDir, returning the produced file's path. LibreOffice names the
// output after the input, so outDir must be private to this call.
func (o *Office) ToPDF(ctx context.Context, input, outDir string) (string, error) {
	// A private profile directory keeps concurrent soffice runs from
	// fighting over the default one.
	profile := filepath.Join(outDir, ".profile")
	args := []string{
		"--headless",
		"--norestore",
		"-env:UserInstallation=file://" + profile,
		"--convert-to", "pdf",
		"--outdir", outDir,
		input,
	}
	if err := run(ctx, o.Runner, o.Binary, args...); err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	out := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(out); err != nil {
		return "", &Error{
			Tool: o.Binary,
			Args: args,
			Err:  fmt.Errorf("conversion produced no output: %w", err),
		}
	}
	return out, nil
}
