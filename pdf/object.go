package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Object is the interface satisfied by every PDF object type.
type Object interface {
	String() string
}

// Null represents the PDF null object.
type Null struct{}

func (Null) String() string { return "null" }

// Bool represents a PDF boolean.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int represents a PDF integer.
type Int int64

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real number.
type Real float64

func (r Real) String() string { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String represents a PDF string. The value holds the decoded bytes;
// escaping and hex forms are a concern of the lexer and writer only.
type String []byte

func (s String) String() string { return "(" + string(s) + ")" }

// Name represents a PDF name object such as /Type or /Pages.
type Name string

func (n Name) String() string { return "/" + string(n) }

// Array represents a PDF array.
type Array []Object

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = obj.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Get returns the element at index, or nil when out of range.
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// Number returns the element at index as a float64. The second return
// value reports whether the element was numeric.
func (a Array) Number(index int) (float64, bool) {
	switch v := a.Get(index).(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// Dict represents a PDF dictionary keyed by name.
type Dict map[Name]Object

func (d Dict) String() string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("/%s %s", k, d[Name(k)].String()))
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get returns the value for key, or nil when absent.
func (d Dict) Get(key Name) Object { return d[key] }

// Has reports whether key is present.
func (d Dict) Has(key Name) bool {
	_, ok := d[key]
	return ok
}

// GetName returns a name value for key.
func (d Dict) GetName(key Name) (Name, bool) {
	n, ok := d[key].(Name)
	return n, ok
}

// GetInt returns an integer value for key.
func (d Dict) GetInt(key Name) (int, bool) {
	switch v := d[key].(type) {
	case Int:
		return int(v), true
	case Real:
		return int(v), true
	}
	return 0, false
}

// GetNumber returns a numeric value for key as a float64.
func (d Dict) GetNumber(key Name) (float64, bool) {
	switch v := d[key].(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// GetDict returns a dictionary value for key.
func (d Dict) GetDict(key Name) (Dict, bool) {
	sub, ok := d[key].(Dict)
	return sub, ok
}

// GetArray returns an array value for key.
func (d Dict) GetArray(key Name) (Array, bool) {
	arr, ok := d[key].(Array)
	return arr, ok
}

// Clone returns a shallow copy of the dictionary.
func (d Dict) Clone() Dict {
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Stream represents a PDF stream object: a dictionary plus raw
// (still encoded) data. Use Decode to obtain the filtered bytes.
type Stream struct {
	Dict Dict
	Raw  []byte
}

func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Raw))
}

// Decode applies the stream's filter chain to Raw and returns the
// decoded bytes. Streams without filters return Raw unchanged.
func (s *Stream) Decode() ([]byte, error) {
	return decodeStream(s.Dict, s.Raw)
}

// Ref represents an indirect object reference (e.g. "12 0 R").
type Ref struct {
	Num int
	Gen int
}

func (r Ref) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }
