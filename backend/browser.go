package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Printer converts HTML to PDF by printing it through a headless
// Chrome or Chromium instance.
type Printer struct {
	// Binary is the browser executable path, normally taken from the
	// capability probe. Empty lets chromedp find one on its own.
	Binary string
	// NoSandbox disables the browser sandbox, which containerized
	// environments usually require.
	NoSandbox bool
}

// NewPrinter returns a Printer using the given browser binary.
func NewPrinter(binary string) *Printer {
	return &Printer{Binary: binary}
}

// PrintPaper is the default US Letter paper size, in inches.
var PrintPaper = struct{ Width, Height float64 }{8.5, 11}

// PrintHTML renders the HTML document at input and returns it as PDF
// bytes. workDir holds the temporary file handed to the browser and
// must be private to this call.
func (p *Printer) PrintHTML(ctx context.Context, html []byte, workDir string) ([]byte, error) {
	path := filepath.Join(workDir, "print.html")
	if err := os.WriteFile(path, html, 0o600); err != nil {
		return nil, fmt.Errorf("staging html: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("no-first-run", true),
	)
	if p.Binary != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(p.Binary))
	}
	if p.NoSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	var buf []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(PrintPaper.Width).
				WithPaperHeight(PrintPaper.Height).
				WithPrintBackground(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, &Error{
			Tool:    "browser",
			Args:    []string{"print-to-pdf"},
			Timeout: ctx.Err() == context.DeadlineExceeded,
			Err:     err,
		}
	}
	return buf, nil
}
