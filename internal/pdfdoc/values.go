package pdfdoc

import (
	"github.com/bidmap-converter/backend/internal/pdfstr"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Text decodes a string object. Names are returned as-is.
func Text(o types.Object) (string, bool) {
	switch v := o.(type) {
	case types.StringLiteral:
		return pdfstr.Decode([]byte(pdfstr.Unescape(string(v)))), true
	case types.HexLiteral:
		return pdfstr.DecodeHex(string(v))
	case types.Name:
		return string(v), true
	}
	return "", false
}

// TextObject encodes s as a literal string when it is ASCII and as a
// UTF-16BE hex string otherwise.
func TextObject(s string) types.Object {
	if pdfstr.IsASCII(s) {
		return types.StringLiteral(pdfstr.Escape(s))
	}
	return types.HexLiteral(pdfstr.EncodeUTF16Hex(s))
}

// Number converts a numeric object.
func Number(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

// Numbers converts an array of numbers. ok is false if any element is not
// numeric.
func Numbers(a types.Array) ([]float64, bool) {
	out := make([]float64, 0, len(a))
	for _, o := range a {
		f, ok := Number(o)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// Floats builds a numeric array.
func Floats(vals ...float64) types.Array {
	a := make(types.Array, 0, len(vals))
	for _, v := range vals {
		a = append(a, types.Float(v))
	}
	return a
}

// Name returns the value of a name entry.
func Name(d types.Dict, key string) string {
	if n, ok := d[key].(types.Name); ok {
		return string(n)
	}
	return ""
}
