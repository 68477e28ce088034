// Package conformance loads and verifies codec test vectors.
//
// A vector file is UTF-8 text with one vector per line:
//
//	codec<TAB>decoded<TAB>encoded[<TAB>kind]
//
// The decoded field is lowercase hex for byte codecs, or a space-separated
// list of U+XXXX code points when the codec works on text. "-" marks a vector
// with no decoded side (decode-only). A fourth field names the codecerr.Kind
// that decoding the encoded field must fail with; when a decoded side is also
// present, encoding it must still produce the encoded field.
//
// Lines starting with '#' and blank lines are ignored.
package conformance

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"xdao.co/codec/cidutil"
	"xdao.co/codec/codecerr"
)

// Header is the comment line Format writes at the top of a vector file.
const Header = "# xdao-codec conformance vectors v1"

// NoDecoded is the decoded-field placeholder for decode-only vectors.
const NoDecoded = "-"

// Vector is one conformance case.
type Vector struct {
	Line  int
	Codec string

	// HasDecoded is false for decode-only vectors.
	HasDecoded bool
	Decoded    []byte
	// Text reports that Decoded is UTF-8 and is written as code points.
	Text bool

	Encoded string

	// WantKind is the expected decode failure, or "" when decoding succeeds.
	WantKind codecerr.Kind
}

// Parse reads vectors from r.
func Parse(r io.Reader) ([]Vector, error) {
	var out []Vector
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		s := sc.Text()
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		v, err := parseLine(s)
		if err != nil {
			return nil, fmt.Errorf("conformance: line %d: %w", line, err)
		}
		v.Line = line
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("conformance: %w", err)
	}
	return out, nil
}

func parseLine(s string) (Vector, error) {
	fields := strings.Split(s, "\t")
	if len(fields) != 3 && len(fields) != 4 {
		return Vector{}, fmt.Errorf("expected 3 or 4 tab-separated fields, got %d", len(fields))
	}
	v := Vector{Codec: fields[0], Encoded: fields[2]}
	if v.Codec == "" {
		return Vector{}, fmt.Errorf("missing codec name")
	}
	if len(fields) == 4 {
		k, ok := codecerr.ParseKind(fields[3])
		if !ok {
			return Vector{}, fmt.Errorf("unknown error kind %q", fields[3])
		}
		v.WantKind = k
	}

	switch d := fields[1]; {
	case d == NoDecoded:
		if v.WantKind == "" {
			return Vector{}, fmt.Errorf("decode-only vector must name an error kind")
		}
	case strings.HasPrefix(d, "U+"):
		b, err := parseCodePoints(d)
		if err != nil {
			return Vector{}, err
		}
		v.HasDecoded, v.Decoded, v.Text = true, b, true
	default:
		b, err := hex.DecodeString(d)
		if err != nil {
			return Vector{}, fmt.Errorf("decoded field: %w", err)
		}
		v.HasDecoded, v.Decoded = true, b
	}
	return v, nil
}

func parseCodePoints(s string) ([]byte, error) {
	var out []byte
	for _, f := range strings.Fields(s) {
		if !strings.HasPrefix(f, "U+") {
			return nil, fmt.Errorf("code point %q lacks U+ prefix", f)
		}
		n, err := strconv.ParseUint(f[2:], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("code point %q: %w", f, err)
		}
		r := rune(n)
		if !utf8.ValidRune(r) {
			return nil, fmt.Errorf("code point %q is not a Unicode scalar value", f)
		}
		out = utf8.AppendRune(out, r)
	}
	return out, nil
}

// Load reads the vector file at path.
func Load(path string) ([]Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Format renders vectors in canonical file form, preceded by Header.
// Parse(Format(v)) yields v again, apart from Line numbers.
func Format(vectors []Vector) []byte {
	var b bytes.Buffer
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, v := range vectors {
		b.WriteString(v.Codec)
		b.WriteByte('\t')
		b.WriteString(formatDecoded(v))
		b.WriteByte('\t')
		b.WriteString(v.Encoded)
		if v.WantKind != "" {
			b.WriteByte('\t')
			b.WriteString(string(v.WantKind))
		}
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func formatDecoded(v Vector) string {
	switch {
	case !v.HasDecoded:
		return NoDecoded
	case v.Text:
		parts := make([]string, 0, utf8.RuneCount(v.Decoded))
		for _, r := range string(v.Decoded) {
			parts = append(parts, fmt.Sprintf("U+%04X", r))
		}
		return strings.Join(parts, " ")
	default:
		return hex.EncodeToString(v.Decoded)
	}
}

// FileCID returns the CIDv1 (raw, sha2-256) of the file at path.
func FileCID(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return cidutil.CIDv1RawSHA256(b), nil
}
