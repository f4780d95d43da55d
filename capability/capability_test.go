package capability

import (
	"errors"
	"testing"
)

func lookupFrom(found map[string]string) func(string) (string, error) {
	return func(bin string) (string, error) {
		if path, ok := found[bin]; ok {
			return path, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func TestProbeWithAllPresent(t *testing.T) {
	set := ProbeWith(lookupFrom(map[string]string{
		"soffice":  "/usr/bin/soffice",
		"pdftoppm": "/usr/bin/pdftoppm",
		"chromium": "/usr/bin/chromium",
	}))

	for _, c := range []Capability{OfficeRenderer, Rasterizer, Browser} {
		if !set.Has(c) {
			t.Errorf("Has(%s) = false, want true", c)
		}
	}

	e, ok := set.Lookup(OfficeRenderer)
	if !ok || e.Path != "/usr/bin/soffice" {
		t.Errorf("Lookup(OfficeRenderer) = %+v, %v", e, ok)
	}
}

func TestProbeWithNonePresent(t *testing.T) {
	set := ProbeWith(lookupFrom(nil))

	for _, c := range []Capability{OfficeRenderer, Rasterizer, Browser} {
		if set.Has(c) {
			t.Errorf("Has(%s) = true, want false", c)
		}
	}

	all := set.All()
	if len(all) != 3 {
		t.Fatalf("All returned %d entries, want 3", len(all))
	}
	for _, e := range all {
		if e.Available || e.Path != "" {
			t.Errorf("entry %s reports available in empty environment", e.Name)
		}
	}
}

func TestProbeWithCandidateFallback(t *testing.T) {
	// soffice is missing but the libreoffice alias resolves.
	set := ProbeWith(lookupFrom(map[string]string{
		"libreoffice": "/usr/local/bin/libreoffice",
	}))

	e, ok := set.Lookup(OfficeRenderer)
	if !ok || !e.Available {
		t.Fatalf("office renderer not found via fallback candidate")
	}
	if e.Path != "/usr/local/bin/libreoffice" {
		t.Errorf("Path = %q", e.Path)
	}
	if set.Has(Browser) {
		t.Error("browser should be absent")
	}
}

func TestZeroSet(t *testing.T) {
	var set Set
	if set.Has(Rasterizer) {
		t.Error("zero Set reports a capability as available")
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Capability: Rasterizer}
	want := "capability rasterizer is not available in this environment"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
