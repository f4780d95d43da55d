package text

import (
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// DecodeText converts raw PDF string bytes to normalized UTF-8.
//
// Strings carrying a UTF-16BE byte order mark are decoded as UTF-16;
// everything else is treated as WinAnsi, which covers the standard
// fonts in practice. The result is NFC-normalized so downstream
// comparisons and output formats see one canonical form.
func DecodeText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		return norm.NFC.String(decodeUTF16BE(raw[2:]))
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		// WinAnsi decoding cannot fail on arbitrary bytes, but keep
		// the raw text rather than dropping it.
		return norm.NFC.String(string(raw))
	}
	return norm.NFC.String(string(decoded))
}

func decodeUTF16BE(raw []byte) string {
	units := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
	}
	return string(utf16.Decode(units))
}
