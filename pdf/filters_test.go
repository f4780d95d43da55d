package pdf

import (
	"bytes"
	"testing"
)

func TestFlateRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("papermill content stream "), 40)
	encoded := flateEncode(plain)

	stream := &Stream{
		Dict: Dict{"Filter": Name("FlateDecode"), "Length": Int(len(encoded))},
		Raw:  encoded,
	}
	decoded, err := stream.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(decoded, plain) {
		t.Errorf("round trip mismatch: got %d bytes, want %d", len(decoded), len(plain))
	}
}

func TestStreamWithoutFilter(t *testing.T) {
	stream := &Stream{Dict: Dict{}, Raw: []byte("as-is")}
	decoded, err := stream.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(decoded) != "as-is" {
		t.Errorf("got %q", decoded)
	}
}

func TestASCIIHexDecode(t *testing.T) {
	out, err := asciiHexDecode([]byte("48 65 6C6C 6F>"))
	if err != nil {
		t.Fatalf("asciiHexDecode: %v", err)
	}
	if string(out) != "Hello" {
		t.Errorf("got %q, want Hello", out)
	}
}

func TestRunLengthDecode(t *testing.T) {
	// Literal run "ab", then a length byte of 253 replicating 'c'
	// 257-253 = 4 times, then EOD.
	input := []byte{1, 'a', 'b', 253, 'c', 128}
	out, err := runLengthDecode(input)
	if err != nil {
		t.Fatalf("runLengthDecode: %v", err)
	}
	if string(out) != "abcccc" {
		t.Errorf("got %q, want abcccc", out)
	}
}

func TestPNGPredictorUp(t *testing.T) {
	// Two rows of four columns, both tagged Up (2).
	input := []byte{
		2, 1, 2, 3, 4,
		2, 1, 1, 1, 1,
	}
	out, err := applyPNGPredictor(input, 4, 1, 8)
	if err != nil {
		t.Fatalf("applyPNGPredictor: %v", err)
	}
	want := []byte{1, 2, 3, 4, 2, 3, 4, 5}
	if !bytes.Equal(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestFilterChainArray(t *testing.T) {
	plain := []byte("doubly wrapped")
	encoded := flateEncode(plain)

	var hexed bytes.Buffer
	for _, b := range encoded {
		hexed.WriteString(string("0123456789ABCDEF"[b>>4]) + string("0123456789ABCDEF"[b&0xF]))
	}
	hexed.WriteByte('>')

	stream := &Stream{
		Dict: Dict{"Filter": Array{Name("ASCIIHexDecode"), Name("FlateDecode")}},
		Raw:  hexed.Bytes(),
	}
	decoded, err := stream.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(decoded, plain) {
		t.Errorf("got %q, want %q", decoded, plain)
	}
}
