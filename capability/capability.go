package capability

import (
	"fmt"
	"os/exec"
	"sync"
)

// Capability names an optional external backend whose presence gates
// certain conversions.
type Capability string

const (
	// OfficeRenderer is a headless LibreOffice installation, used for
	// converting Office documents to PDF.
	OfficeRenderer Capability = "office-renderer"
	// Rasterizer is the poppler pdftoppm tool, used for rendering PDF
	// pages to raster images.
	Rasterizer Capability = "rasterizer"
	// Browser is a headless Chrome or Chromium, used for printing HTML
	// to PDF.
	Browser Capability = "browser"
)

// Entry records the probe outcome for one capability.
type Entry struct {
	Name      Capability
	Available bool
	// Path is the resolved binary path when available, empty otherwise.
	Path string
}

// Set is an immutable snapshot of probed capabilities. The zero value
// reports nothing as available.
type Set struct {
	entries map[Capability]Entry
}

// Has reports whether the capability was found during probing.
func (s Set) Has(c Capability) bool {
	return s.entries[c].Available
}

// Lookup returns the probe entry for c.
func (s Set) Lookup(c Capability) (Entry, bool) {
	e, ok := s.entries[c]
	return e, ok
}

// All returns every probe entry, for diagnostics.
func (s Set) All() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, c := range []Capability{OfficeRenderer, Rasterizer, Browser} {
		if e, ok := s.entries[c]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Error reports a conversion that needs a backend absent from the
// current environment.
type Error struct {
	Capability Capability
}

func (e *Error) Error() string {
	return fmt.Sprintf("capability %s is not available in this environment", e.Capability)
}

// binaryCandidates lists the binaries probed for each capability, in
// preference order.
var binaryCandidates = map[Capability][]string{
	OfficeRenderer: {"soffice", "libreoffice"},
	Rasterizer:     {"pdftoppm"},
	Browser:        {"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"},
}

// probeOnce caches the process-wide snapshot. Probing happens at most
// once, on first use, and is safe under concurrent first access.
var probeOnce = sync.OnceValue(func() Set {
	return ProbeWith(exec.LookPath)
})

// Probe returns the process-wide capability snapshot, probing the
// environment on first call and returning the cached result after.
func Probe() Set {
	return probeOnce()
}

// ProbeWith builds a snapshot using the given PATH lookup. It exists
// so tests and embedders can control the environment; production code
// uses Probe.
func ProbeWith(lookPath func(string) (string, error)) Set {
	entries := make(map[Capability]Entry, len(binaryCandidates))
	for name, bins := range binaryCandidates {
		entry := Entry{Name: name}
		for _, bin := range bins {
			if path, err := lookPath(bin); err == nil {
				entry.Available = true
				entry.Path = path
				break
			}
		}
		entries[name] = entry
	}
	return Set{entries: entries}
}
