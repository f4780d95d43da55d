package pdf

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"sort"
)

// Writer assembles a new PDF file. Objects are added as indirect
// objects, the catalog is designated with SetRoot, and Bytes serializes
// everything with a classic cross-reference table.
type Writer struct {
	objects map[int]Object
	next    int
	root    Ref
	info    Dict
}

// NewWriter creates an empty writer. Object numbering starts at 1.
func NewWriter() *Writer {
	return &Writer{
		objects: make(map[int]Object),
		next:    1,
	}
}

// Reserve allocates an object number without a body. The caller must
// supply the body later with Set; this enables forward references
// (e.g. pages referencing their parent tree node).
func (w *Writer) Reserve() Ref {
	ref := Ref{Num: w.next}
	w.next++
	return ref
}

// Set assigns the body for a previously reserved reference.
func (w *Writer) Set(ref Ref, obj Object) {
	w.objects[ref.Num] = obj
}

// Add appends obj as a new indirect object and returns its reference.
func (w *Writer) Add(obj Object) Ref {
	ref := w.Reserve()
	w.Set(ref, obj)
	return ref
}

// AddStream adds data as a FlateDecode stream with the given extra
// dictionary entries and returns its reference.
func (w *Writer) AddStream(dict Dict, data []byte) Ref {
	if dict == nil {
		dict = make(Dict)
	}
	compressed := flateEncode(data)
	dict["Filter"] = Name("FlateDecode")
	dict["Length"] = Int(len(compressed))
	return w.Add(&Stream{Dict: dict, Raw: compressed})
}

// AddRawStream adds data as a stream without recompressing it; filter
// entries must already be present in dict (e.g. DCTDecode images).
func (w *Writer) AddRawStream(dict Dict, data []byte) Ref {
	if dict == nil {
		dict = make(Dict)
	}
	dict["Length"] = Int(len(data))
	return w.Add(&Stream{Dict: dict, Raw: data})
}

// SetRoot designates the catalog object.
func (w *Writer) SetRoot(ref Ref) { w.root = ref }

// SetInfo sets the document information dictionary.
func (w *Writer) SetInfo(info Dict) { w.info = info }

// Bytes serializes the file. Every reserved object must have a body and
// a root must have been set.
func (w *Writer) Bytes() ([]byte, error) {
	if w.root.Num == 0 {
		return nil, fmt.Errorf("pdf: no root object set")
	}
	nums := make([]int, 0, len(w.objects))
	for num := range w.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	if len(nums) != w.next-1 {
		return nil, fmt.Errorf("pdf: %d object numbers reserved but %d bodies set", w.next-1, len(nums))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	// Binary marker comment so transfer tools treat the file as binary.
	buf.Write([]byte{'%', 0xE2, 0xE3, 0xCF, 0xD3, '\n'})

	offsets := make(map[int]int, len(nums))
	for _, num := range nums {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", num)
		writeObject(&buf, w.objects[num])
		buf.WriteString("\nendobj\n")
	}

	var infoRef Ref
	if w.info != nil {
		infoRef = Ref{Num: w.next}
		offsets[infoRef.Num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", infoRef.Num)
		writeObject(&buf, w.info)
		buf.WriteString("\nendobj\n")
		nums = append(nums, infoRef.Num)
	}

	xrefStart := buf.Len()
	size := len(nums) + 1
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for _, num := range nums {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}

	id := md5.Sum(buf.Bytes())
	trailer := Dict{
		"Size": Int(size),
		"Root": w.root,
		"ID":   Array{String(id[:]), String(id[:])},
	}
	if w.info != nil {
		trailer["Info"] = infoRef
	}
	buf.WriteString("trailer\n")
	writeObject(&buf, trailer)
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefStart)

	return buf.Bytes(), nil
}

// writeObject serializes one object in file syntax.
func writeObject(buf *bytes.Buffer, obj Object) {
	switch v := obj.(type) {
	case nil:
		buf.WriteString("null")
	case Null:
		buf.WriteString("null")
	case Bool, Int, Real, Name, Ref:
		buf.WriteString(v.String())
	case String:
		writeString(buf, v)
	case Array:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(buf, elem)
		}
		buf.WriteByte(']')
	case Dict:
		writeDict(buf, v)
	case *Stream:
		writeDict(buf, v.Dict)
		buf.WriteString("\nstream\n")
		buf.Write(v.Raw)
		buf.WriteString("\nendstream")
	default:
		// Unknown object types have no file syntax; null keeps the
		// document well-formed.
		buf.WriteString("null")
	}
}

func writeDict(buf *bytes.Buffer, d Dict) {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	buf.WriteString("<<")
	for _, k := range keys {
		buf.WriteString(" /")
		writeNameBody(buf, k)
		buf.WriteByte(' ')
		writeObject(buf, d[Name(k)])
	}
	buf.WriteString(" >>")
}

func writeNameBody(buf *bytes.Buffer, name string) {
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b <= 32 || b >= 127 || isDelimiter(b) || b == '#' {
			fmt.Fprintf(buf, "#%02X", b)
			continue
		}
		buf.WriteByte(b)
	}
}

func writeString(buf *bytes.Buffer, s String) {
	// Hex form for anything with binary content, literal otherwise.
	for _, b := range s {
		if b < 32 || b >= 127 {
			fmt.Fprintf(buf, "<%X>", []byte(s))
			return
		}
	}
	buf.WriteByte('(')
	for _, b := range s {
		if b == '(' || b == ')' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	buf.WriteByte(')')
}
