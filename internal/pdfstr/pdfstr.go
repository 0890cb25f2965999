// Package pdfstr converts between Go strings and PDF string objects.
package pdfstr

import (
	"bytes"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Unescape undoes the backslash escapes of a literal string body. A body
// that cannot be unescaped is returned unchanged.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	b, err := types.Unescape(s)
	if err != nil {
		return s
	}
	return string(b)
}

// Escape returns the literal string body for raw bytes.
func Escape(s string) string {
	esc, err := types.Escape(s)
	if err != nil || esc == nil {
		return s
	}
	return *esc
}

// pdfDocHigh holds the PDFDocEncoding code points that differ from
// ISO 8859-1. Zero marks an undefined code, which decodes to U+FFFD.
var pdfDocHigh = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
	0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
	0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
	0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0x9F: 0,
	0xA0: '€', 0xAD: 0,
}

// DecodePDFDoc maps PDFDocEncoding bytes to UTF-8.
func DecodePDFDoc(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		r, ok := pdfDocHigh[c]
		switch {
		case !ok:
			b.WriteRune(rune(c))
		case r == 0:
			b.WriteRune(utf8.RuneError)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Decode converts the bytes of a PDF text string to UTF-8. UTF-16BE and
// UTF-8 are recognized by their byte-order marks; anything else is
// PDFDocEncoding.
func Decode(raw []byte) string {
	switch {
	case types.IsUTF16BE(raw):
		if s, err := types.DecodeUTF16String(string(raw)); err == nil {
			return s
		}
	case bytes.HasPrefix(raw, bomUTF8):
		return string(raw[len(bomUTF8):])
	}
	return DecodePDFDoc(raw)
}

// DecodeHex decodes the body of a hex string. An odd trailing digit is
// padded with zero.
func DecodeHex(s string) (string, bool) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, s)
	if len(s)%2 == 1 {
		s += "0"
	}
	raw, err := types.HexLiteral(s).Bytes()
	if err != nil {
		return "", false
	}
	return Decode(raw), true
}

// IsASCII reports whether s can be written as a plain literal string.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// EncodeUTF16Hex returns the hex body of s as BOM-prefixed UTF-16BE.
func EncodeUTF16Hex(s string) string {
	return strings.ToUpper(hex.EncodeToString([]byte(types.EncodeUTF16String(s))))
}
