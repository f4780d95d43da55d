package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Sentinel errors reported by Parse.
var (
	// ErrNotPDF is returned when the input lacks a PDF header.
	ErrNotPDF = errors.New("pdf: missing %PDF header")
	// ErrEncrypted is returned for encrypted documents, which this
	// package does not open.
	ErrEncrypted = errors.New("pdf: document is encrypted")
)

// File is a parsed PDF file. Objects are loaded lazily and cached.
type File struct {
	Version string
	Trailer Dict

	data  []byte
	xref  map[int]xrefEntry
	cache map[int]Object
}

type xrefEntry struct {
	offset    int64 // byte offset for regular objects
	inStream  bool  // true when stored in an object stream
	streamNum int   // containing object stream number
	streamIdx int   // index within the object stream
}

// Parse reads a complete PDF file from data. It locates the
// cross-reference information, following /Prev chains, and falls back
// to scanning the whole file when the xref machinery is damaged.
func Parse(data []byte) (*File, error) {
	f := &File{
		data:  data,
		xref:  make(map[int]xrefEntry),
		cache: make(map[int]Object),
	}

	version, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	f.Version = version

	if err := f.loadXRef(); err != nil {
		// Damaged xref: rebuild the table by scanning for objects.
		if scanErr := f.scanObjects(); scanErr != nil {
			return nil, fmt.Errorf("pdf: xref unusable (%v) and recovery scan failed: %w", err, scanErr)
		}
	}

	if f.Trailer == nil {
		return nil, fmt.Errorf("pdf: no trailer dictionary found")
	}
	if f.Trailer.Has("Encrypt") {
		return nil, ErrEncrypted
	}
	if !f.Trailer.Has("Root") {
		return nil, fmt.Errorf("pdf: trailer missing /Root")
	}
	return f, nil
}

func parseHeader(data []byte) (string, error) {
	limit := len(data)
	if limit > 1024 {
		limit = 1024
	}
	idx := bytes.Index(data[:limit], []byte("%PDF-"))
	if idx < 0 {
		return "", ErrNotPDF
	}
	end := idx + 5
	for end < len(data) && (data[end] == '.' || (data[end] >= '0' && data[end] <= '9')) {
		end++
	}
	return string(data[idx+5 : end]), nil
}

// loadXRef locates startxref and walks the xref chain.
func (f *File) loadXRef() error {
	tail := f.data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return fmt.Errorf("startxref not found")
	}

	s := NewScanner(tail)
	s.Seek(idx + len("startxref"))
	obj, err := s.Next()
	if err != nil {
		return fmt.Errorf("reading startxref offset: %w", err)
	}
	offset, ok := obj.(Int)
	if !ok {
		return fmt.Errorf("startxref offset is %T, want integer", obj)
	}

	seen := make(map[int64]bool)
	next := int64(offset)
	for next >= 0 {
		if seen[next] || next >= int64(len(f.data)) {
			return fmt.Errorf("xref chain loops or points past end of file")
		}
		seen[next] = true
		prev, err := f.loadXRefSection(next)
		if err != nil {
			return err
		}
		next = prev
	}
	return nil
}

// loadXRefSection parses one xref table or stream at offset and returns
// the /Prev offset, or -1 when the chain ends.
func (f *File) loadXRefSection(offset int64) (int64, error) {
	s := NewScanner(f.data)
	s.Seek(int(offset))
	s.SkipSpace()

	if bytes.HasPrefix(f.data[s.Pos():], []byte("xref")) {
		return f.loadXRefTable(s)
	}
	return f.loadXRefStream(s)
}

func (f *File) loadXRefTable(s *Scanner) (int64, error) {
	s.Seek(s.Pos() + len("xref"))

	for {
		s.SkipSpace()
		if bytes.HasPrefix(f.data[s.Pos():], []byte("trailer")) {
			s.Seek(s.Pos() + len("trailer"))
			break
		}

		startObj, err := s.Next()
		if err != nil {
			return 0, fmt.Errorf("xref section header: %w", err)
		}
		count, err := s.Next()
		if err != nil {
			return 0, fmt.Errorf("xref section header: %w", err)
		}
		start, ok1 := startObj.(Int)
		n, ok2 := count.(Int)
		if !ok1 || !ok2 {
			return 0, fmt.Errorf("malformed xref section header")
		}

		for i := 0; i < int(n); i++ {
			s.SkipSpace()
			pos := s.Pos()
			if pos+18 > len(f.data) {
				return 0, fmt.Errorf("truncated xref entry")
			}
			entry := f.data[pos : pos+18]
			off, err1 := strconv.ParseInt(string(bytes.TrimSpace(entry[0:10])), 10, 64)
			kind := entry[17]
			if entry[17] == '\r' || entry[17] == '\n' {
				kind = entry[16]
			}
			if err1 != nil {
				return 0, fmt.Errorf("malformed xref entry %q", entry)
			}
			num := int(start) + i
			if kind == 'n' {
				// Earlier sections in the chain take precedence.
				if _, exists := f.xref[num]; !exists {
					f.xref[num] = xrefEntry{offset: off}
				}
			}
			s.Seek(pos + 18)
		}
	}

	obj, err := s.Next()
	if err != nil {
		return 0, fmt.Errorf("trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return 0, fmt.Errorf("trailer is %T, want dictionary", obj)
	}
	f.mergeTrailer(trailer)

	if prev, ok := trailer.GetInt("Prev"); ok {
		return int64(prev), nil
	}
	return -1, nil
}

func (f *File) loadXRefStream(s *Scanner) (int64, error) {
	obj, err := f.parseIndirectAt(s)
	if err != nil {
		return 0, fmt.Errorf("xref stream: %w", err)
	}
	stream, ok := obj.(*Stream)
	if !ok {
		return 0, fmt.Errorf("xref offset points at %T, want stream", obj)
	}
	if typ, _ := stream.Dict.GetName("Type"); typ != "XRef" {
		return 0, fmt.Errorf("xref stream has type /%s", typ)
	}

	data, err := stream.Decode()
	if err != nil {
		return 0, fmt.Errorf("decoding xref stream: %w", err)
	}

	wArr, ok := stream.Dict.GetArray("W")
	if !ok || len(wArr) < 3 {
		return 0, fmt.Errorf("xref stream missing /W")
	}
	var w [3]int
	for i := 0; i < 3; i++ {
		v, ok := wArr.Number(i)
		if !ok {
			return 0, fmt.Errorf("non-numeric /W entry")
		}
		w[i] = int(v)
	}
	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return 0, fmt.Errorf("zero-width xref stream rows")
	}

	size, _ := stream.Dict.GetInt("Size")
	index := []int{0, size}
	if idxArr, ok := stream.Dict.GetArray("Index"); ok {
		index = index[:0]
		for i := range idxArr {
			v, ok := idxArr.Number(i)
			if !ok {
				return 0, fmt.Errorf("non-numeric /Index entry")
			}
			index = append(index, int(v))
		}
	}

	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowLen > len(data) {
				return 0, fmt.Errorf("truncated xref stream data")
			}
			typ := int64(1)
			if w[0] > 0 {
				typ = beInt(data[pos : pos+w[0]])
			}
			f2 := beInt(data[pos+w[0] : pos+w[0]+w[1]])
			f3 := beInt(data[pos+w[0]+w[1] : pos+rowLen])
			pos += rowLen

			num := start + j
			if _, exists := f.xref[num]; exists {
				continue
			}
			switch typ {
			case 1:
				f.xref[num] = xrefEntry{offset: f2}
			case 2:
				f.xref[num] = xrefEntry{inStream: true, streamNum: int(f2), streamIdx: int(f3)}
			}
		}
	}

	f.mergeTrailer(stream.Dict)
	if prev, ok := stream.Dict.GetInt("Prev"); ok {
		return int64(prev), nil
	}
	return -1, nil
}

func beInt(b []byte) int64 {
	var v int64
	for _, x := range b {
		v = v<<8 | int64(x)
	}
	return v
}

// mergeTrailer keeps the newest value for each trailer key. The first
// trailer encountered is the most recent incremental update.
func (f *File) mergeTrailer(t Dict) {
	if f.Trailer == nil {
		f.Trailer = make(Dict)
	}
	for k, v := range t {
		if !f.Trailer.Has(k) {
			f.Trailer[k] = v
		}
	}
}

var objStartRe = regexp.MustCompile(`(?m)^[ \t]*(\d+)[ \t]+(\d+)[ \t]+obj\b`)

// scanObjects rebuilds the xref table by scanning for "N G obj" markers.
// Later definitions win, matching incremental-update semantics.
func (f *File) scanObjects() error {
	matches := objStartRe.FindAllSubmatchIndex(f.data, -1)
	if len(matches) == 0 {
		return fmt.Errorf("no indirect objects found")
	}
	for _, m := range matches {
		num, err := strconv.Atoi(string(f.data[m[2]:m[3]]))
		if err != nil {
			continue
		}
		f.xref[num] = xrefEntry{offset: int64(m[0])}
	}

	// Recover a trailer: prefer an explicit trailer dictionary, else
	// find the catalog object and synthesize one.
	if idx := bytes.LastIndex(f.data, []byte("trailer")); idx >= 0 {
		s := NewScanner(f.data)
		s.Seek(idx + len("trailer"))
		if obj, err := s.Next(); err == nil {
			if dict, ok := obj.(Dict); ok {
				f.mergeTrailer(dict)
			}
		}
	}
	if f.Trailer == nil || !f.Trailer.Has("Root") {
		for num := range f.xref {
			obj, err := f.Object(num)
			if err != nil {
				continue
			}
			if dict, ok := obj.(Dict); ok {
				if typ, _ := dict.GetName("Type"); typ == "Catalog" {
					f.mergeTrailer(Dict{"Root": Ref{Num: num}})
					break
				}
			}
		}
	}
	return nil
}

// Object returns the indirect object with the given number, loading and
// caching it on first use.
func (f *File) Object(num int) (Object, error) {
	if obj, ok := f.cache[num]; ok {
		return obj, nil
	}
	entry, ok := f.xref[num]
	if !ok {
		return Null{}, nil // free or absent objects read as null
	}

	var obj Object
	var err error
	if entry.inStream {
		obj, err = f.objectFromStream(entry.streamNum, entry.streamIdx)
	} else {
		if entry.offset < 0 || entry.offset >= int64(len(f.data)) {
			return nil, fmt.Errorf("object %d offset %d out of range", num, entry.offset)
		}
		s := NewScanner(f.data)
		s.Seek(int(entry.offset))
		obj, err = f.parseIndirectAt(s)
	}
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", num, err)
	}
	f.cache[num] = obj
	return obj, nil
}

// parseIndirectAt parses "num gen obj <value> [stream] endobj" at the
// scanner's position and returns the contained value.
func (f *File) parseIndirectAt(s *Scanner) (Object, error) {
	numObj, err := s.Next()
	if err != nil {
		return nil, err
	}
	genObj, err := s.Next()
	if err != nil {
		return nil, err
	}
	kw, err := s.Next()
	if err != nil {
		return nil, err
	}
	if _, ok := numObj.(Int); !ok {
		return nil, fmt.Errorf("expected object number, got %T", numObj)
	}
	if _, ok := genObj.(Int); !ok {
		return nil, fmt.Errorf("expected generation number, got %T", genObj)
	}
	if op, ok := kw.(Operator); !ok || op != "obj" {
		return nil, fmt.Errorf("expected obj keyword, got %v", kw)
	}

	val, err := s.Next()
	if err != nil {
		return nil, err
	}

	s.SkipSpace()
	if !bytes.HasPrefix(f.data[s.Pos():], []byte("stream")) {
		return val, nil
	}

	// Stream payload follows. The dictionary we just read is its header.
	dict, ok := val.(Dict)
	if !ok {
		return nil, fmt.Errorf("stream preceded by %T, want dictionary", val)
	}
	pos := s.Pos() + len("stream")
	if pos < len(f.data) && f.data[pos] == '\r' {
		pos++
	}
	if pos < len(f.data) && f.data[pos] == '\n' {
		pos++
	}

	length, err := f.streamLength(dict)
	if err != nil {
		return nil, err
	}
	if pos+length > len(f.data) {
		return nil, fmt.Errorf("stream length %d runs past end of file", length)
	}
	return &Stream{Dict: dict, Raw: f.data[pos : pos+length]}, nil
}

// streamLength resolves /Length, which is frequently an indirect
// reference to an integer stored after the stream itself.
func (f *File) streamLength(dict Dict) (int, error) {
	obj, err := f.Resolve(dict.Get("Length"))
	if err != nil {
		return 0, fmt.Errorf("resolving stream /Length: %w", err)
	}
	length, ok := obj.(Int)
	if !ok {
		return 0, fmt.Errorf("stream /Length is %T, want integer", obj)
	}
	if length < 0 {
		return 0, fmt.Errorf("negative stream length %d", length)
	}
	return int(length), nil
}

// objectFromStream extracts the object at index idx from object stream
// streamNum (compressed objects, PDF 1.5+).
func (f *File) objectFromStream(streamNum, idx int) (Object, error) {
	container, err := f.Object(streamNum)
	if err != nil {
		return nil, err
	}
	stream, ok := container.(*Stream)
	if !ok {
		return nil, fmt.Errorf("object stream %d is %T, want stream", streamNum, container)
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding object stream %d: %w", streamNum, err)
	}
	n, _ := stream.Dict.GetInt("N")
	first, _ := stream.Dict.GetInt("First")
	if idx >= n {
		return nil, fmt.Errorf("object index %d out of range in stream %d (N=%d)", idx, streamNum, n)
	}

	// Header: N pairs of "objnum offset".
	s := NewScanner(data)
	var offset int
	for i := 0; i < n; i++ {
		numTok, err := s.Next()
		if err != nil {
			return nil, fmt.Errorf("object stream %d header: %w", streamNum, err)
		}
		offTok, err := s.Next()
		if err != nil {
			return nil, fmt.Errorf("object stream %d header: %w", streamNum, err)
		}
		if i == idx {
			off, ok := offTok.(Int)
			if !ok {
				return nil, fmt.Errorf("object stream %d: offset is %T", streamNum, offTok)
			}
			if _, ok := numTok.(Int); !ok {
				return nil, fmt.Errorf("object stream %d: object number is %T", streamNum, numTok)
			}
			offset = first + int(off)
		}
	}

	s.Seek(offset)
	return s.Next()
}

// Resolve follows indirect references until a direct object is reached.
func (f *File) Resolve(obj Object) (Object, error) {
	for depth := 0; depth < 32; depth++ {
		ref, ok := obj.(Ref)
		if !ok {
			return obj, nil
		}
		next, err := f.Object(ref.Num)
		if err != nil {
			return nil, err
		}
		obj = next
	}
	return nil, fmt.Errorf("reference chain too deep")
}

// ResolveDeep resolves obj and, recursively, every reference inside it.
// Cycles are cut by substituting null, which keeps the result a
// self-contained value safe to re-serialize.
func (f *File) ResolveDeep(obj Object) (Object, error) {
	return f.resolveDeep(obj, make(map[Ref]bool))
}

func (f *File) resolveDeep(obj Object, visiting map[Ref]bool) (Object, error) {
	if ref, ok := obj.(Ref); ok {
		if visiting[ref] {
			return Null{}, nil
		}
		visiting[ref] = true
		defer delete(visiting, ref)
		inner, err := f.Object(ref.Num)
		if err != nil {
			return nil, err
		}
		return f.resolveDeep(inner, visiting)
	}

	switch v := obj.(type) {
	case Dict:
		out := make(Dict, len(v))
		for k, elem := range v {
			if k == "Parent" {
				continue // page-tree back-references only cause cycles
			}
			resolved, err := f.resolveDeep(elem, visiting)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case Array:
		out := make(Array, len(v))
		for i, elem := range v {
			resolved, err := f.resolveDeep(elem, visiting)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case *Stream:
		dict, err := f.resolveDeep(v.Dict, visiting)
		if err != nil {
			return nil, err
		}
		return &Stream{Dict: dict.(Dict), Raw: v.Raw}, nil
	default:
		return obj, nil
	}
}

// Catalog returns the document catalog dictionary.
func (f *File) Catalog() (Dict, error) {
	obj, err := f.Resolve(f.Trailer.Get("Root"))
	if err != nil {
		return nil, fmt.Errorf("resolving /Root: %w", err)
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is %T, want dictionary", obj)
	}
	return dict, nil
}
