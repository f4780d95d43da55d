package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/tsawler/papermill/pdf"
)

// DecodeError reports input that could not be decoded into a Document.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return "decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// maxTreeDepth bounds page-tree recursion; real documents nest a
// handful of levels at most.
const maxTreeDepth = 64

// Decode parses PDF bytes into a Document. Malformed structure
// (unusable xref and no recoverable objects, broken page tree,
// encryption) yields a *DecodeError rather than a partial Document.
func Decode(data []byte) (*Document, error) {
	f, err := pdf.Parse(data)
	if err != nil {
		return nil, &DecodeError{Reason: "parsing file", Err: err}
	}

	catalog, err := f.Catalog()
	if err != nil {
		return nil, &DecodeError{Reason: "reading catalog", Err: err}
	}
	rootObj, err := f.Resolve(catalog.Get("Pages"))
	if err != nil {
		return nil, &DecodeError{Reason: "resolving page tree root", Err: err}
	}
	root, ok := rootObj.(pdf.Dict)
	if !ok {
		return nil, &DecodeError{Reason: fmt.Sprintf("page tree root is %T, want dictionary", rootObj)}
	}

	doc := &Document{}
	if err := walkPageTree(f, root, inherited{}, doc, 0); err != nil {
		return nil, &DecodeError{Reason: "traversing page tree", Err: err}
	}
	if len(doc.Pages) == 0 {
		return nil, &DecodeError{Reason: "document has no pages"}
	}

	doc.Meta = readMetadata(f)
	sum := sha256.Sum256(data)
	doc.id = hex.EncodeToString(sum[:])
	return doc, nil
}

// inherited carries attributes that page-tree nodes pass to children.
type inherited struct {
	mediaBox  pdf.Array
	resources pdf.Object
	rotate    *int
}

func walkPageTree(f *pdf.File, node pdf.Dict, inh inherited, doc *Document, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("page tree deeper than %d levels", maxTreeDepth)
	}

	if box, ok := resolveArray(f, node.Get("MediaBox")); ok {
		inh.mediaBox = box
	}
	if res := node.Get("Resources"); res != nil {
		inh.resources = res
	}
	if rot, ok := node.GetInt("Rotate"); ok {
		inh.rotate = &rot
	}

	typ, _ := node.GetName("Type")
	switch typ {
	case "Pages":
		kidsObj, err := f.Resolve(node.Get("Kids"))
		if err != nil {
			return fmt.Errorf("resolving /Kids: %w", err)
		}
		kids, ok := kidsObj.(pdf.Array)
		if !ok {
			return fmt.Errorf("/Kids is %T, want array", kidsObj)
		}
		for i, kid := range kids {
			kidObj, err := f.Resolve(kid)
			if err != nil {
				return fmt.Errorf("resolving kid %d: %w", i, err)
			}
			kidDict, ok := kidObj.(pdf.Dict)
			if !ok {
				return fmt.Errorf("kid %d is %T, want dictionary", i, kidObj)
			}
			if err := walkPageTree(f, kidDict, inh, doc, depth+1); err != nil {
				return err
			}
		}
		return nil

	case "Page":
		page, err := buildPage(f, node, inh)
		if err != nil {
			return fmt.Errorf("page %d: %w", len(doc.Pages), err)
		}
		page.Index = len(doc.Pages)
		doc.Pages = append(doc.Pages, page)
		return nil

	default:
		return fmt.Errorf("page tree node has type /%s", typ)
	}
}

func buildPage(f *pdf.File, node pdf.Dict, inh inherited) (Page, error) {
	var page Page

	if inh.mediaBox == nil {
		return page, fmt.Errorf("no MediaBox on page or ancestors")
	}
	x1, ok1 := inh.mediaBox.Number(0)
	y1, ok2 := inh.mediaBox.Number(1)
	x2, ok3 := inh.mediaBox.Number(2)
	y2, ok4 := inh.mediaBox.Number(3)
	if !ok1 || !ok2 || !ok3 || !ok4 || len(inh.mediaBox) != 4 {
		return page, fmt.Errorf("malformed MediaBox %v", inh.mediaBox)
	}
	page.Width = x2 - x1
	page.Height = y2 - y1

	if inh.rotate != nil {
		page.Rotation = NormalizeRotation(*inh.rotate)
	}

	content, err := readContents(f, node)
	if err != nil {
		return page, err
	}
	page.Content = content

	if inh.resources != nil {
		resObj, err := f.ResolveDeep(inh.resources)
		if err != nil {
			return page, fmt.Errorf("resolving resources: %w", err)
		}
		if res, ok := resObj.(pdf.Dict); ok {
			page.Resources = res
		}
	}
	return page, nil
}

// readContents decodes the page's content stream or streams. Multiple
// streams are one logical stream split across objects; they are joined
// with a newline, which is valid whitespace between operators.
func readContents(f *pdf.File, node pdf.Dict) ([]byte, error) {
	contentsObj, err := f.Resolve(node.Get("Contents"))
	if err != nil {
		return nil, fmt.Errorf("resolving /Contents: %w", err)
	}

	var streams []*pdf.Stream
	switch v := contentsObj.(type) {
	case nil, pdf.Null:
		return nil, nil // content is optional
	case *pdf.Stream:
		streams = []*pdf.Stream{v}
	case pdf.Array:
		for i, elem := range v {
			resolved, err := f.Resolve(elem)
			if err != nil {
				return nil, fmt.Errorf("resolving contents[%d]: %w", i, err)
			}
			s, ok := resolved.(*pdf.Stream)
			if !ok {
				return nil, fmt.Errorf("contents[%d] is %T, want stream", i, resolved)
			}
			streams = append(streams, s)
		}
	default:
		return nil, fmt.Errorf("/Contents is %T", contentsObj)
	}

	var buf bytes.Buffer
	for i, s := range streams {
		decoded, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("decoding content stream %d: %w", i, err)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(decoded)
	}
	return buf.Bytes(), nil
}

func resolveArray(f *pdf.File, obj pdf.Object) (pdf.Array, bool) {
	if obj == nil {
		return nil, false
	}
	resolved, err := f.Resolve(obj)
	if err != nil {
		return nil, false
	}
	arr, ok := resolved.(pdf.Array)
	return arr, ok
}

func readMetadata(f *pdf.File) Metadata {
	var meta Metadata
	infoObj, err := f.Resolve(f.Trailer.Get("Info"))
	if err != nil {
		return meta
	}
	info, ok := infoObj.(pdf.Dict)
	if !ok {
		return meta
	}
	get := func(key pdf.Name) string {
		if s, ok := info.Get(key).(pdf.String); ok {
			return string(s)
		}
		return ""
	}
	meta.Title = get("Title")
	meta.Author = get("Author")
	meta.Subject = get("Subject")
	meta.Creator = get("Creator")
	meta.Producer = get("Producer")
	return meta
}

// Encode serializes the Document back to PDF bytes. Content streams
// are Flate-compressed; page resources are written inline so the
// output is self-contained.
func Encode(doc *Document) ([]byte, error) {
	if doc.PageCount() == 0 {
		return nil, fmt.Errorf("encode: document has no pages")
	}

	w := pdf.NewWriter()
	pagesRef := w.Reserve()

	kids := make(pdf.Array, 0, doc.PageCount())
	for _, p := range doc.Pages {
		pageDict := pdf.Dict{
			"Type":     pdf.Name("Page"),
			"Parent":   pagesRef,
			"MediaBox": pdf.Array{pdf.Int(0), pdf.Int(0), pdf.Real(p.Width), pdf.Real(p.Height)},
		}
		if p.Rotation != 0 {
			pageDict["Rotate"] = pdf.Int(p.Rotation)
		}
		if len(p.Content) > 0 {
			pageDict["Contents"] = w.AddStream(nil, p.Content)
		}
		if p.Resources != nil {
			pageDict["Resources"] = hoistStreams(w, p.Resources)
		} else {
			pageDict["Resources"] = pdf.Dict{}
		}
		kids = append(kids, w.Add(pageDict))
	}

	w.Set(pagesRef, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  kids,
		"Count": pdf.Int(len(kids)),
	})
	w.SetRoot(w.Add(pdf.Dict{
		"Type":  pdf.Name("Catalog"),
		"Pages": pagesRef,
	}))
	w.SetInfo(encodeMetadata(doc.Meta))

	return w.Bytes()
}

// hoistStreams rewrites obj so that any stream nested inside it becomes
// an indirect object. Streams are only legal as indirect objects, and
// deep-resolved resource dictionaries may contain them (font programs,
// form XObjects).
func hoistStreams(w *pdf.Writer, obj pdf.Object) pdf.Object {
	switch v := obj.(type) {
	case pdf.Dict:
		out := make(pdf.Dict, len(v))
		for k, elem := range v {
			out[k] = hoistStreams(w, elem)
		}
		return out
	case pdf.Array:
		out := make(pdf.Array, len(v))
		for i, elem := range v {
			out[i] = hoistStreams(w, elem)
		}
		return out
	case *pdf.Stream:
		dict := hoistStreams(w, v.Dict).(pdf.Dict)
		dict["Length"] = pdf.Int(len(v.Raw))
		return w.Add(&pdf.Stream{Dict: dict, Raw: v.Raw})
	default:
		return obj
	}
}

func encodeMetadata(meta Metadata) pdf.Dict {
	info := pdf.Dict{"Producer": pdf.String("papermill")}
	if meta.Title != "" {
		info["Title"] = pdf.String(meta.Title)
	}
	if meta.Author != "" {
		info["Author"] = pdf.String(meta.Author)
	}
	if meta.Subject != "" {
		info["Subject"] = pdf.String(meta.Subject)
	}
	if meta.Creator != "" {
		info["Creator"] = pdf.String(meta.Creator)
	}
	return info
}
