package toolchest

import (
	"bytes"
	"encoding/hex"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bidmap-converter/backend/internal/pdfstr"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/charmap"
)

// zlibMagic is the hex form of the default-compression zlib header.
const zlibMagic = "789c"

var (
	subjPattern    = regexp.MustCompile(`/Subj\(((?:\\.|[^\\)])*)\)`)
	fillPattern    = regexp.MustCompile(`/IC\s*\[([^\]]*)\]`)
	strokePattern  = regexp.MustCompile(`/C\s*\[([^\]]*)\]`)
	opacityPattern = regexp.MustCompile(`/CA\s+([0-9.]+)`)
)

// IsHexZlib reports whether s looks like a hex-encoded zlib payload.
func IsHexZlib(s string) bool {
	return len(s) >= 4 && strings.EqualFold(s[:4], zlibMagic)
}

// DecodeRaw hex-decodes and inflates a toolchest payload. The text is read as
// UTF-8 when valid and as latin-1 otherwise. ok is false for anything that is
// not a well-formed compressed payload.
func DecodeRaw(s string) (text string, ok bool) {
	s = strings.TrimSpace(s)
	if !IsHexZlib(s) {
		return "", false
	}
	compressed, err := hex.DecodeString(s)
	if err != nil {
		return "", false
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return "", false
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return "", false
	}
	if utf8.Valid(data) {
		return string(data), true
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// EncodeRaw is the inverse of DecodeRaw for UTF-8 text.
func EncodeRaw(text string) (string, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// decodeField returns the decoded payload when the value is compressed and
// the trimmed value itself otherwise.
func decodeField(s string) string {
	if text, ok := DecodeRaw(s); ok {
		return text
	}
	if IsHexZlib(strings.TrimSpace(s)) {
		return ""
	}
	return strings.TrimSpace(s)
}

// ExtractSubject returns the first /Subj(...) string in a decoded payload.
func ExtractSubject(raw string) (string, bool) {
	m := subjPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	subject := strings.TrimSpace(pdfstr.Unescape(m[1]))
	return subject, subject != ""
}

// Colors are the native color entries of a payload. Nil slices mean the
// entry is absent; Opacity is negative when /CA is missing.
type Colors struct {
	Fill    []float64
	Stroke  []float64
	Opacity float64
}

// ExtractColors reads /IC, /C and /CA from a decoded payload. Only RGB
// arrays are accepted.
func ExtractColors(raw string) Colors {
	c := Colors{Opacity: -1}
	if m := fillPattern.FindStringSubmatch(raw); m != nil {
		c.Fill = rgb(m[1])
	}
	if m := strokePattern.FindStringSubmatch(raw); m != nil {
		c.Stroke = rgb(m[1])
	}
	if m := opacityPattern.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			c.Opacity = v
		}
	}
	return c
}

func rgb(s string) []float64 {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return nil
	}
	out := make([]float64, 3)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil
		}
		out[i] = v
	}
	return out
}
