package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"fmt"
	"io"
)

// decodeStream applies the filter chain named in dict to data.
func decodeStream(dict Dict, data []byte) ([]byte, error) {
	filters, parms := filterChain(dict)
	out := data
	var err error
	for i, f := range filters {
		var p Dict
		if i < len(parms) {
			p = parms[i]
		}
		out, err = applyFilter(f, out, p)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f, err)
		}
	}
	return out, nil
}

// filterChain normalizes the /Filter and /DecodeParms entries, which may
// each be a single value or an array.
func filterChain(dict Dict) ([]Name, []Dict) {
	var filters []Name
	switch f := dict.Get("Filter").(type) {
	case Name:
		filters = []Name{f}
	case Array:
		for _, elem := range f {
			if n, ok := elem.(Name); ok {
				filters = append(filters, n)
			}
		}
	}

	var parms []Dict
	switch p := dict.Get("DecodeParms").(type) {
	case Dict:
		parms = []Dict{p}
	case Array:
		for _, elem := range p {
			d, _ := elem.(Dict)
			parms = append(parms, d) // nil holds the position
		}
	}
	return filters, parms
}

func applyFilter(name Name, data []byte, parms Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return flateDecode(data, parms)
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	case "ASCII85Decode", "A85":
		return ascii85Decode(data)
	case "RunLengthDecode", "RL":
		return runLengthDecode(data)
	case "DCTDecode", "DCT", "JPXDecode":
		// Image codecs: the encoded bytes are the image itself.
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported filter")
	}
}

func flateDecode(data []byte, parms Dict) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	out := buf.Bytes()

	if parms != nil {
		if pred, ok := parms.GetInt("Predictor"); ok && pred > 1 {
			columns, _ := parms.GetInt("Columns")
			if columns == 0 {
				columns = 1
			}
			colors, _ := parms.GetInt("Colors")
			if colors == 0 {
				colors = 1
			}
			bpc, _ := parms.GetInt("BitsPerComponent")
			if bpc == 0 {
				bpc = 8
			}
			return applyPNGPredictor(out, columns, colors, bpc)
		}
	}
	return out, nil
}

// flateEncode compresses data with zlib at the default level. Used by
// the writer for content streams and image data.
func flateEncode(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

// applyPNGPredictor reverses PNG row prediction (predictors 10-15).
// TIFF predictor 2 is not handled; xref streams in practice use PNG Up.
func applyPNGPredictor(data []byte, columns, colors, bpc int) ([]byte, error) {
	bpp := (colors*bpc + 7) / 8
	rowLen := (columns*colors*bpc + 7) / 8
	stride := rowLen + 1
	if stride <= 1 || len(data)%stride != 0 {
		return nil, fmt.Errorf("predictor: data length %d not a multiple of row stride %d", len(data), stride)
	}

	rows := len(data) / stride
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)

	for r := 0; r < rows; r++ {
		tag := data[r*stride]
		row := make([]byte, rowLen)
		copy(row, data[r*stride+1:(r+1)*stride])

		switch tag {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < rowLen; i++ {
				row[i] += row[i-bpp]
			}
		case 2: // Up
			for i := 0; i < rowLen; i++ {
				row[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < rowLen; i++ {
				var left byte
				if i >= bpp {
					left = row[i-bpp]
				}
				row[i] += byte((int(left) + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < rowLen; i++ {
				var left, upLeft byte
				if i >= bpp {
					left = row[i-bpp]
					upLeft = prev[i-bpp]
				}
				row[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("predictor: unknown row tag %d", tag)
		}

		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func asciiHexDecode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var hi byte
	haveHi := false
	for _, b := range data {
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		v, ok := hexVal(b)
		if !ok {
			return nil, fmt.Errorf("invalid hex digit %q", b)
		}
		if haveHi {
			buf.WriteByte(hi<<4 | v)
			haveHi = false
		} else {
			hi = v
			haveHi = true
		}
	}
	if haveHi {
		buf.WriteByte(hi << 4)
	}
	return buf.Bytes(), nil
}

func ascii85Decode(data []byte) ([]byte, error) {
	if idx := bytes.Index(data, []byte("~>")); idx >= 0 {
		data = data[:idx]
	}
	dec := ascii85.NewDecoder(bytes.NewReader(data))
	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("ascii85: %w", err)
	}
	return out, nil
}

func runLengthDecode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	i := 0
	for i < len(data) {
		length := data[i]
		i++
		switch {
		case length == 128:
			return buf.Bytes(), nil
		case length < 128:
			n := int(length) + 1
			if i+n > len(data) {
				return nil, fmt.Errorf("run length: literal run past end of data")
			}
			buf.Write(data[i : i+n])
			i += n
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("run length: replicated run past end of data")
			}
			n := 257 - int(length)
			for j := 0; j < n; j++ {
				buf.WriteByte(data[i])
			}
			i++
		}
	}
	return buf.Bytes(), nil
}
