package text

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsawler/papermill/model"
	"github.com/tsawler/papermill/pdf"
)

// Fragment is one run of shown text with its position on the page.
// Coordinates are PDF user space, origin at the bottom left.
type Fragment struct {
	Text string
	X, Y float64
	Size float64
}

// Line is a group of fragments sharing a baseline, in reading order.
type Line struct {
	Fragments []Fragment
	Y         float64
}

// Text joins the line's fragments, inserting a space where the
// horizontal gap between neighbours suggests a word boundary.
func (l Line) Text() string {
	var sb strings.Builder
	for i, frag := range l.Fragments {
		sb.WriteString(frag.Text)
		if i+1 < len(l.Fragments) {
			next := l.Fragments[i+1]
			gap := next.X - frag.X - estimateWidth(frag)
			if gap >= frag.Size*0.3 && !endsInSpace(frag.Text) && !startsWithSpace(next.Text) {
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

func endsInSpace(s string) bool     { return s != "" && s[len(s)-1] == ' ' }
func startsWithSpace(s string) bool { return s != "" && s[0] == ' ' }

// estimateWidth approximates a fragment's advance. Without embedded
// font metrics a half-em per rune is close enough for word-boundary
// detection.
func estimateWidth(f Fragment) float64 {
	return float64(len([]rune(f.Text))) * f.Size * 0.5
}

// textState tracks the subset of PDF text state the extractor needs.
type textState struct {
	x, y         float64 // current text position
	lineX, lineY float64 // start of the current text line
	leading      float64
	fontSize     float64
	inText       bool
}

func (s *textState) nextLine(tx, ty float64) {
	s.lineX += tx
	s.lineY += ty
	s.x, s.y = s.lineX, s.lineY
}

// Extractor pulls positioned text fragments out of page content
// streams.
type Extractor struct {
	fragments []Fragment
	state     textState
}

// NewExtractor returns an empty Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPage extracts every text fragment from the page's content
// stream, in stream order.
func (e *Extractor) ExtractPage(page model.Page) ([]Fragment, error) {
	e.fragments = nil
	e.state = textState{fontSize: 12}

	sc := pdf.NewScanner(page.Content)
	var operands []pdf.Object
	for {
		sc.SkipSpace()
		if sc.Pos() >= len(page.Content) {
			break
		}
		obj, err := sc.Next()
		if err != nil {
			return nil, fmt.Errorf("content stream at offset %d: %w", sc.Pos(), err)
		}
		op, ok := obj.(pdf.Operator)
		if !ok {
			operands = append(operands, obj)
			continue
		}
		if op == "BI" {
			if err := sc.SkipInlineImage(); err != nil {
				return nil, fmt.Errorf("inline image: %w", err)
			}
			operands = operands[:0]
			continue
		}
		e.apply(op, operands)
		operands = operands[:0]
	}
	return e.fragments, nil
}

func (e *Extractor) apply(op pdf.Operator, operands []pdf.Object) {
	s := &e.state
	switch op {
	case "BT":
		s.inText = true
		s.x, s.y, s.lineX, s.lineY = 0, 0, 0, 0
	case "ET":
		s.inText = false
	case "Tf":
		if len(operands) == 2 {
			if size, ok := toFloat(operands[1]); ok {
				s.fontSize = size
			}
		}
	case "TL":
		if len(operands) == 1 {
			if l, ok := toFloat(operands[0]); ok {
				s.leading = l
			}
		}
	case "Td":
		if len(operands) == 2 {
			tx, _ := toFloat(operands[0])
			ty, _ := toFloat(operands[1])
			s.nextLine(tx, ty)
		}
	case "TD":
		if len(operands) == 2 {
			tx, _ := toFloat(operands[0])
			ty, _ := toFloat(operands[1])
			s.leading = -ty
			s.nextLine(tx, ty)
		}
	case "Tm":
		if len(operands) == 6 {
			tx, _ := toFloat(operands[4])
			ty, _ := toFloat(operands[5])
			s.lineX, s.lineY = tx, ty
			s.x, s.y = tx, ty
		}
	case "T*":
		s.nextLine(0, -s.leading)
	case "Tj":
		if len(operands) == 1 {
			if str, ok := operands[0].(pdf.String); ok {
				e.show([]byte(str))
			}
		}
	case "TJ":
		if len(operands) == 1 {
			if arr, ok := operands[0].(pdf.Array); ok {
				e.showArray(arr)
			}
		}
	case "'":
		s.nextLine(0, -s.leading)
		if len(operands) == 1 {
			if str, ok := operands[0].(pdf.String); ok {
				e.show([]byte(str))
			}
		}
	case "\"":
		s.nextLine(0, -s.leading)
		if len(operands) == 3 {
			if str, ok := operands[2].(pdf.String); ok {
				e.show([]byte(str))
			}
		}
	}
}

func (e *Extractor) show(raw []byte) {
	if !e.state.inText {
		return
	}
	decoded := DecodeText(raw)
	if decoded == "" {
		return
	}
	frag := Fragment{
		Text: decoded,
		X:    e.state.x,
		Y:    e.state.y,
		Size: e.state.fontSize,
	}
	e.fragments = append(e.fragments, frag)
	e.state.x += estimateWidth(frag)
}

func (e *Extractor) showArray(arr pdf.Array) {
	for _, item := range arr {
		switch v := item.(type) {
		case pdf.String:
			e.show([]byte(v))
		case pdf.Int:
			e.state.x -= float64(v) * e.state.fontSize / 1000
		case pdf.Real:
			e.state.x -= float64(v) * e.state.fontSize / 1000
		}
	}
}

func toFloat(obj pdf.Object) (float64, bool) {
	switch v := obj.(type) {
	case pdf.Int:
		return float64(v), true
	case pdf.Real:
		return float64(v), true
	}
	return 0, false
}

// GroupLines clusters fragments into baselines. Fragments whose Y
// differ by less than half the larger font size share a line. Lines
// come back top to bottom, fragments within a line left to right.
func GroupLines(fragments []Fragment) []Line {
	if len(fragments) == 0 {
		return nil
	}
	sorted := make([]Fragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var lines []Line
	current := Line{Fragments: []Fragment{sorted[0]}, Y: sorted[0].Y}
	for _, frag := range sorted[1:] {
		tol := frag.Size
		if current.Fragments[0].Size > tol {
			tol = current.Fragments[0].Size
		}
		if current.Y-frag.Y <= tol*0.5 {
			current.Fragments = append(current.Fragments, frag)
		} else {
			lines = append(lines, current)
			current = Line{Fragments: []Fragment{frag}, Y: frag.Y}
		}
	}
	lines = append(lines, current)

	for i := range lines {
		frags := lines[i].Fragments
		sort.SliceStable(frags, func(a, b int) bool {
			return frags[a].X < frags[b].X
		})
	}
	return lines
}

// PageText extracts a page and assembles its text in reading order.
func PageText(page model.Page) (string, error) {
	frags, err := NewExtractor().ExtractPage(page)
	if err != nil {
		return "", err
	}
	return AssembleLines(GroupLines(frags)), nil
}

// AssembleLines joins grouped lines into a text block. Consecutive
// lines separated by more than 1.5 line heights become separate
// paragraphs.
func AssembleLines(lines []Line) string {
	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(line.Text())
		if i+1 < len(lines) {
			gap := line.Y - lines[i+1].Y
			height := line.Fragments[0].Size
			if height > 0 && gap > height*1.5 {
				sb.WriteString("\n\n")
			} else {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
