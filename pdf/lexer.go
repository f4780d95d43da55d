package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

// Operator is a bare keyword token, such as a content-stream operator
// ("Tj", "BT") or a structural keyword ("obj", "stream", "R").
type Operator string

func (o Operator) String() string { return string(o) }

// Scanner tokenizes PDF syntax from a byte slice. It is shared between
// the file parser and content-stream interpretation: both use the same
// object syntax, differing only in how bare keywords are treated.
type Scanner struct {
	data []byte
	pos  int
}

// NewScanner creates a scanner over data starting at offset 0.
func NewScanner(data []byte) *Scanner {
	return &Scanner{data: data}
}

// Pos returns the current byte offset.
func (s *Scanner) Pos() int { return s.pos }

// Seek moves the scanner to the given byte offset.
func (s *Scanner) Seek(pos int) { s.pos = pos }

func isWhitespace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// SkipSpace advances past whitespace and comments.
func (s *Scanner) SkipSpace() {
	for s.pos < len(s.data) {
		b := s.data[s.pos]
		if isWhitespace(b) {
			s.pos++
			continue
		}
		if b == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		return
	}
}

// Next returns the next token. Composite objects (arrays, dictionaries)
// are returned fully parsed, with "n g R" sequences inside them folded
// into Ref values. Bare keywords other than true, false and null are
// returned as Operator tokens; the caller decides what they mean.
func (s *Scanner) Next() (Object, error) {
	s.SkipSpace()
	if s.pos >= len(s.data) {
		return nil, fmt.Errorf("unexpected end of input at offset %d", s.pos)
	}

	b := s.data[s.pos]
	switch {
	case b == '[':
		return s.readArray()
	case b == ']':
		s.pos++
		return Operator("]"), nil
	case b == '<':
		if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
			return s.readDict()
		}
		return s.readHexString()
	case b == '>':
		if s.pos+1 < len(s.data) && s.data[s.pos+1] == '>' {
			s.pos += 2
			return Operator(">>"), nil
		}
		return nil, fmt.Errorf("stray '>' at offset %d", s.pos)
	case b == '(':
		return s.readLiteralString()
	case b == '/':
		return s.readName()
	case b == '{' || b == '}':
		s.pos++
		return Operator(string(b)), nil
	case b >= '0' && b <= '9', b == '+', b == '-', b == '.':
		return s.readNumber()
	default:
		return s.readKeyword()
	}
}

// readArray parses "[ ... ]" with R-folding.
func (s *Scanner) readArray() (Object, error) {
	s.pos++ // consume '['
	var arr Array
	for {
		s.SkipSpace()
		if s.pos >= len(s.data) {
			return nil, fmt.Errorf("unterminated array at offset %d", s.pos)
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return arr, nil
		}
		obj, err := s.Next()
		if err != nil {
			return nil, err
		}
		arr = appendFolded(arr, obj)
	}
}

// readDict parses "<< ... >>" with R-folding of values. Values are
// flushed lazily because a reference spans three tokens ("n g R"); a
// value is complete once the next key or the closing delimiter arrives.
func (s *Scanner) readDict() (Object, error) {
	s.pos += 2 // consume '<<'
	dict := make(Dict)
	var key Name
	haveKey := false
	var pending []Object

	flush := func() error {
		if !haveKey {
			return nil
		}
		if len(pending) != 1 {
			return fmt.Errorf("malformed value for /%s (got %d tokens) at offset %d", key, len(pending), s.pos)
		}
		dict[key] = pending[0]
		haveKey = false
		pending = nil
		return nil
	}

	for {
		s.SkipSpace()
		if s.pos >= len(s.data) {
			return nil, fmt.Errorf("unterminated dictionary at offset %d", s.pos)
		}
		if s.data[s.pos] == '>' && s.pos+1 < len(s.data) && s.data[s.pos+1] == '>' {
			s.pos += 2
			if err := flush(); err != nil {
				return nil, err
			}
			return dict, nil
		}

		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if n, ok := tok.(Name); ok && (!haveKey || len(pending) > 0) {
			if err := flush(); err != nil {
				return nil, err
			}
			if !haveKey {
				key = n
				haveKey = true
				continue
			}
		}
		if !haveKey {
			return nil, fmt.Errorf("dictionary key is %T, want name, at offset %d", tok, s.pos)
		}
		pending = appendFolded(pending, tok)
	}
}

// appendFolded appends obj to items, collapsing "Int Int R" into a Ref.
func appendFolded(items []Object, obj Object) []Object {
	if op, ok := obj.(Operator); ok && op == "R" && len(items) >= 2 {
		gen, okG := items[len(items)-1].(Int)
		num, okN := items[len(items)-2].(Int)
		if okG && okN {
			return append(items[:len(items)-2], Ref{Num: int(num), Gen: int(gen)})
		}
	}
	return append(items, obj)
}

func (s *Scanner) readNumber() (Object, error) {
	start := s.pos
	for s.pos < len(s.data) && !isWhitespace(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	tok := string(s.data[start:s.pos])
	if !bytes.ContainsAny(s.data[start:s.pos], ".eE") {
		if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q at offset %d", tok, start)
	}
	return Real(f), nil
}

func (s *Scanner) readKeyword() (Object, error) {
	start := s.pos
	for s.pos < len(s.data) && !isWhitespace(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return nil, fmt.Errorf("unexpected byte 0x%02x at offset %d", s.data[start], start)
	}
	switch kw := string(s.data[start:s.pos]); kw {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "null":
		return Null{}, nil
	default:
		return Operator(kw), nil
	}
}

func (s *Scanner) readName() (Object, error) {
	s.pos++ // consume '/'
	var buf bytes.Buffer
	for s.pos < len(s.data) {
		b := s.data[s.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		if b == '#' && s.pos+2 < len(s.data) {
			if v, err := strconv.ParseUint(string(s.data[s.pos+1:s.pos+3]), 16, 8); err == nil {
				buf.WriteByte(byte(v))
				s.pos += 3
				continue
			}
		}
		buf.WriteByte(b)
		s.pos++
	}
	return Name(buf.String()), nil
}

func (s *Scanner) readLiteralString() (Object, error) {
	s.pos++ // consume '('
	var buf bytes.Buffer
	depth := 1
	for s.pos < len(s.data) {
		b := s.data[s.pos]
		s.pos++
		switch b {
		case '\\':
			if s.pos >= len(s.data) {
				return nil, fmt.Errorf("unterminated string escape at offset %d", s.pos)
			}
			e := s.data[s.pos]
			s.pos++
			switch e {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '(', ')', '\\':
				buf.WriteByte(e)
			case '\r':
				// Line continuation; swallow an optional LF too.
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
				// Line continuation.
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.data); i++ {
						d := s.data[s.pos]
						if d < '0' || d > '7' {
							break
						}
						val = val*8 + int(d-'0')
						s.pos++
					}
					buf.WriteByte(byte(val))
				} else {
					buf.WriteByte(e)
				}
			}
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return String(buf.Bytes()), nil
			}
			buf.WriteByte(b)
		default:
			buf.WriteByte(b)
		}
	}
	return nil, fmt.Errorf("unterminated string at offset %d", s.pos)
}

func (s *Scanner) readHexString() (Object, error) {
	s.pos++ // consume '<'
	var buf bytes.Buffer
	var hi byte
	haveHi := false
	for s.pos < len(s.data) {
		b := s.data[s.pos]
		s.pos++
		if b == '>' {
			if haveHi {
				// Odd digit count: final digit is followed by implicit 0.
				buf.WriteByte(hi << 4)
			}
			return String(buf.Bytes()), nil
		}
		if isWhitespace(b) {
			continue
		}
		v, ok := hexVal(b)
		if !ok {
			return nil, fmt.Errorf("invalid hex digit %q at offset %d", b, s.pos-1)
		}
		if haveHi {
			buf.WriteByte(hi<<4 | v)
			haveHi = false
		} else {
			hi = v
			haveHi = true
		}
	}
	return nil, fmt.Errorf("unterminated hex string at offset %d", s.pos)
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// SkipInlineImage advances past an inline image, scanning from the
// current position (anywhere after the BI operator) to the closing EI
// operator. The image parameters and binary payload are discarded.
func (s *Scanner) SkipInlineImage() error {
	for s.pos+1 < len(s.data) {
		if s.data[s.pos] == 'E' && s.data[s.pos+1] == 'I' {
			before := s.pos == 0 || isWhitespace(s.data[s.pos-1])
			after := s.pos+2 >= len(s.data) || isWhitespace(s.data[s.pos+2]) || isDelimiter(s.data[s.pos+2])
			if before && after {
				s.pos += 2
				return nil
			}
		}
		s.pos++
	}
	return fmt.Errorf("inline image missing EI terminator")
}
