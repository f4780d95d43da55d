package pdf

import (
	"bytes"
	"errors"
	"testing"
)

// buildMinimalPDF assembles a one-page file through the Writer, giving
// the parser a realistic input without any on-disk fixture.
func buildMinimalPDF(t *testing.T, content string) []byte {
	t.Helper()

	w := NewWriter()
	contents := w.AddStream(nil, []byte(content))

	pagesRef := w.Reserve()
	pageRef := w.Add(Dict{
		"Type":     Name("Page"),
		"Parent":   pagesRef,
		"MediaBox": Array{Int(0), Int(0), Int(612), Int(792)},
		"Contents": contents,
		"Rotate":   Int(90),
	})
	w.Set(pagesRef, Dict{
		"Type":  Name("Pages"),
		"Kids":  Array{pageRef},
		"Count": Int(1),
	})
	w.SetRoot(w.Add(Dict{
		"Type":  Name("Catalog"),
		"Pages": pagesRef,
	}))

	data, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	return data
}

func TestParseWriterOutput(t *testing.T) {
	data := buildMinimalPDF(t, "BT /F1 12 Tf (hi) Tj ET")

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Version != "1.7" {
		t.Errorf("Version = %q, want 1.7", f.Version)
	}

	catalog, err := f.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if typ, _ := catalog.GetName("Type"); typ != "Catalog" {
		t.Errorf("catalog type = %v", typ)
	}

	pagesObj, err := f.Resolve(catalog.Get("Pages"))
	if err != nil {
		t.Fatalf("Resolve Pages: %v", err)
	}
	pages := pagesObj.(Dict)
	if count, _ := pages.GetInt("Count"); count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}

	kids, _ := pages.GetArray("Kids")
	pageObj, err := f.Resolve(kids.Get(0))
	if err != nil {
		t.Fatalf("Resolve kid: %v", err)
	}
	page := pageObj.(Dict)
	if rot, _ := page.GetInt("Rotate"); rot != 90 {
		t.Errorf("Rotate = %d, want 90", rot)
	}

	contentsObj, err := f.Resolve(page.Get("Contents"))
	if err != nil {
		t.Fatalf("Resolve contents: %v", err)
	}
	stream, ok := contentsObj.(*Stream)
	if !ok {
		t.Fatalf("Contents is %T, want *Stream", contentsObj)
	}
	decoded, err := stream.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Contains(decoded, []byte("(hi) Tj")) {
		t.Errorf("content stream lost text operator: %q", decoded)
	}
}

func TestParseRejectsNonPDF(t *testing.T) {
	_, err := Parse([]byte("this is not a pdf at all"))
	if !errors.Is(err, ErrNotPDF) {
		t.Errorf("err = %v, want ErrNotPDF", err)
	}
}

func TestParseRejectsEncrypted(t *testing.T) {
	data := buildMinimalPDF(t, "BT ET")
	// Graft an /Encrypt entry into the trailer.
	data = bytes.Replace(data, []byte("trailer\n<<"), []byte("trailer\n<< /Encrypt 99 0 R"), 1)

	_, err := Parse(data)
	if !errors.Is(err, ErrEncrypted) {
		t.Errorf("err = %v, want ErrEncrypted", err)
	}
}

func TestParseRecoveryScan(t *testing.T) {
	data := buildMinimalPDF(t, "BT ET")
	// Corrupt the startxref offset so the xref chain is unusable.
	data = bytes.Replace(data, []byte("startxref"), []byte("startxxxx"), 1)

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse with damaged xref: %v", err)
	}
	catalog, err := f.Catalog()
	if err != nil {
		t.Fatalf("Catalog after recovery: %v", err)
	}
	if typ, _ := catalog.GetName("Type"); typ != "Catalog" {
		t.Errorf("catalog type = %v", typ)
	}
}

func TestResolveDeep(t *testing.T) {
	data := buildMinimalPDF(t, "BT ET")
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	catalog, err := f.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}

	resolved, err := f.ResolveDeep(catalog)
	if err != nil {
		t.Fatalf("ResolveDeep: %v", err)
	}
	pages, ok := resolved.(Dict)["Pages"].(Dict)
	if !ok {
		t.Fatalf("Pages not inlined: %T", resolved.(Dict)["Pages"])
	}
	kids, _ := pages.GetArray("Kids")
	if _, ok := kids.Get(0).(Dict); !ok {
		t.Errorf("kid not inlined: %T", kids.Get(0))
	}
}

func TestMissingObjectReadsAsNull(t *testing.T) {
	data := buildMinimalPDF(t, "BT ET")
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	obj, err := f.Object(9999)
	if err != nil {
		t.Fatalf("Object(9999): %v", err)
	}
	if _, ok := obj.(Null); !ok {
		t.Errorf("got %T, want Null", obj)
	}
}
