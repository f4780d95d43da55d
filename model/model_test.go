package model

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/tsawler/papermill/pdf"
)

// samplePDF builds an n-page document through the pdf writer so the
// codec is exercised against real file bytes.
func samplePDF(t *testing.T, pageCount int) []byte {
	t.Helper()

	w := pdf.NewWriter()
	pagesRef := w.Reserve()

	kids := make(pdf.Array, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		content := w.AddStream(nil, []byte("BT /F1 12 Tf 72 720 Td (page) Tj ET"))
		kids = append(kids, w.Add(pdf.Dict{
			"Type":     pdf.Name("Page"),
			"Parent":   pagesRef,
			"MediaBox": pdf.Array{pdf.Int(0), pdf.Int(0), pdf.Int(612), pdf.Int(792)},
			"Contents": content,
		}))
	}
	w.Set(pagesRef, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  kids,
		"Count": pdf.Int(pageCount),
	})
	w.SetRoot(w.Add(pdf.Dict{"Type": pdf.Name("Catalog"), "Pages": pagesRef}))

	data, err := w.Bytes()
	if err != nil {
		t.Fatalf("building sample PDF: %v", err)
	}
	return data
}

func TestDecodeBasics(t *testing.T) {
	doc, err := Decode(samplePDF(t, 3))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", doc.PageCount())
	}
	for i, p := range doc.Pages {
		if p.Index != i {
			t.Errorf("page %d has Index %d", i, p.Index)
		}
		if p.Width != 612 || p.Height != 792 {
			t.Errorf("page %d geometry = %gx%g, want 612x792", i, p.Width, p.Height)
		}
		if p.Rotation != 0 {
			t.Errorf("page %d rotation = %d, want 0", i, p.Rotation)
		}
		if !bytes.Contains(p.Content, []byte("(page) Tj")) {
			t.Errorf("page %d content lost: %q", i, p.Content)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not a pdf"))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if !errors.Is(err, pdf.ErrNotPDF) {
		t.Errorf("cause = %v, want ErrNotPDF", err)
	}
}

func TestDecodeRejectsEncrypted(t *testing.T) {
	data := samplePDF(t, 1)
	data = bytes.Replace(data, []byte("trailer\n<<"), []byte("trailer\n<< /Encrypt 77 0 R"), 1)

	_, err := Decode(data)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if !errors.Is(err, pdf.ErrEncrypted) {
		t.Errorf("cause = %v, want ErrEncrypted", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc, err := Decode(samplePDF(t, 2))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	doc.Pages[0].Rotation = 0
	doc.Pages[1].Rotation = 270

	out, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode(Encode(doc)): %v", err)
	}
	if !Equal(doc, back) {
		t.Errorf("round trip lost structural equality")
	}
	if back.Pages[1].Rotation != 270 {
		t.Errorf("rotation = %d, want 270", back.Pages[1].Rotation)
	}
}

func TestEncodeEmptyDocumentFails(t *testing.T) {
	if _, err := Encode(&Document{}); err == nil {
		t.Error("Encode of empty document succeeded, want error")
	}
}

func TestIdentity(t *testing.T) {
	data := samplePDF(t, 2)
	doc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	again, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.ID() != again.ID() {
		t.Error("same bytes produced different identities")
	}

	derived := doc.WithPages(doc.Pages[:1])
	if derived.ID() == doc.ID() {
		t.Error("derived document kept the source identity")
	}
	if doc.PageCount() != 2 {
		t.Error("WithPages mutated the input document")
	}
}

func TestIDIsConcurrencySafe(t *testing.T) {
	doc, err := Decode(samplePDF(t, 2))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	derived := doc.WithPages(doc.Pages[:1])
	want := derived.ID()

	// Derived documents carry their identity from construction, so
	// concurrent readers never write to shared state.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := derived.ID(); got != want {
				t.Errorf("ID = %s, want %s", got, want)
			}
		}()
	}
	wg.Wait()
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0}, {90, 90}, {180, 180}, {270, 270},
		{360, 0}, {450, 90}, {-90, 270}, {-360, 0}, {135, 90},
	}
	for _, tt := range tests {
		if got := NormalizeRotation(tt.in); got != tt.want {
			t.Errorf("NormalizeRotation(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	doc, err := Decode(samplePDF(t, 2))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	same := doc.WithPages(doc.Pages)
	if !Equal(doc, same) {
		t.Error("identical page sets compare unequal")
	}

	rotated := doc.WithPages(doc.Pages)
	rotated.Pages[0].Rotation = 90
	if Equal(doc, rotated) {
		t.Error("rotation difference not detected")
	}

	fewer := doc.WithPages(doc.Pages[:1])
	if Equal(doc, fewer) {
		t.Error("page count difference not detected")
	}
}
