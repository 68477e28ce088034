// Package basen implements the RFC 4648 Base32 and Base64 text encodings with
// '=' padding.
//
// Decoding is deliberately stricter than encoding/base32 and encoding/base64:
// empty text is rejected, padding is only recognized in the slots RFC 4648
// can produce, and every failure is a *codecerr.Error with a stable RuleID.
package basen

import (
	"fmt"

	"xdao.co/codec/codecerr"
	"xdao.co/codec/compliance"
)

const (
	StdPadding = '='

	base32Alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"
	base32HexAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUV"
	base64Alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	invalidSymbol = 0xFF
)

var (
	// Base32 is the RFC 4648 §6 encoding.
	Base32 = newEncoding("base32", base32Alphabet)
	// Base32Hex is the RFC 4648 §7 "extended hex" encoding.
	Base32Hex = newEncoding("base32hex", base32HexAlphabet)
	// Base64 is the RFC 4648 §4 encoding.
	Base64 = newEncoding("base64", base64Alphabet)
	// Base64URL is the RFC 4648 §5 URL and filename safe encoding.
	Base64URL = newEncoding("base64url", base64URLAlphabet)
)

// ByName returns the predefined encoding registered under name.
func ByName(name string) (*Encoding, bool) {
	for _, e := range []*Encoding{Base32, Base32Hex, Base64, Base64URL} {
		if e.name == name {
			return e, true
		}
	}
	return nil, false
}

// Encoding is a padded radix-32 or radix-64 encoding over a fixed alphabet.
// An Encoding is immutable and safe for concurrent use.
type Encoding struct {
	name     string
	rule     string
	alphabet string
	decode   [256]byte

	bits       uint
	groupBytes int
	groupSyms  int

	// padFor[r] is the number of pad symbols emitted for a final group
	// holding r input bytes (r in 0..groupBytes-1).
	padFor []int
	// padSlots lists the legal pad counts in ascending order; decode checks
	// the symbol at each offset from the end in this order.
	padSlots []int
	// missing[p] is the number of bytes absent from a group with p pad symbols.
	missing map[int]int

	mode compliance.Mode
}

// NewEncoding returns a padded encoding for a 32- or 64-symbol alphabet.
// It panics if the alphabet has the wrong size, repeats a symbol, contains
// a non-ASCII symbol or contains the padding character.
func NewEncoding(alphabet string) *Encoding {
	switch len(alphabet) {
	case 32:
		return newEncoding("base32", alphabet)
	case 64:
		return newEncoding("base64", alphabet)
	default:
		panic(fmt.Sprintf("basen: alphabet must have 32 or 64 symbols, got %d", len(alphabet)))
	}
}

func newEncoding(name, alphabet string) *Encoding {
	e := &Encoding{name: name, alphabet: alphabet}
	switch len(alphabet) {
	case 32:
		e.rule, e.bits, e.groupBytes, e.groupSyms = "B32", 5, 5, 8
	case 64:
		e.rule, e.bits, e.groupBytes, e.groupSyms = "B64", 6, 3, 4
	default:
		panic(fmt.Sprintf("basen: alphabet must have 32 or 64 symbols, got %d", len(alphabet)))
	}

	for i := range e.decode {
		e.decode[i] = invalidSymbol
	}
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		switch {
		case c >= 0x80:
			panic("basen: alphabet contains a non-ASCII symbol")
		case c == StdPadding:
			panic("basen: alphabet contains the padding character")
		case e.decode[c] != invalidSymbol:
			panic(fmt.Sprintf("basen: alphabet repeats symbol %q", c))
		}
		e.decode[c] = byte(i)
	}

	e.padFor = make([]int, e.groupBytes)
	e.missing = map[int]int{0: 0}
	for r := 1; r < e.groupBytes; r++ {
		used := (8*r + int(e.bits) - 1) / int(e.bits)
		pad := e.groupSyms - used
		e.padFor[r] = pad
		e.missing[pad] = e.groupBytes - r
	}
	for p := 1; p < e.groupSyms; p++ {
		if _, ok := e.missing[p]; ok {
			e.padSlots = append(e.padSlots, p)
		}
	}
	return e
}

// Name returns the encoding's registry name (e.g. "base32").
func (e *Encoding) Name() string { return e.name }

// Alphabet returns the encoding's symbol alphabet in value order.
func (e *Encoding) Alphabet() string { return e.alphabet }

// Mode returns the compliance mode the encoding decodes with.
func (e *Encoding) Mode() compliance.Mode { return e.mode }

// WithMode returns a copy of e that decodes under mode.
func (e *Encoding) WithMode(mode compliance.Mode) *Encoding {
	c := *e
	c.mode = mode
	return &c
}

// Strict returns a copy of e that rejects non-zero trailing bits.
func (e *Encoding) Strict() *Encoding { return e.WithMode(compliance.Strict) }

// EncodedLen returns the length of the encoding of n source bytes.
func (e *Encoding) EncodedLen(n int) int {
	return (n + e.groupBytes - 1) / e.groupBytes * e.groupSyms
}

// DecodedLen returns the maximum number of bytes decoded from n symbols.
func (e *Encoding) DecodedLen(n int) int {
	return n / e.groupSyms * e.groupBytes
}

// PadCount returns the number of pad symbols the encoding of n bytes ends with.
func (e *Encoding) PadCount(n int) int {
	return e.padFor[n%e.groupBytes]
}

// EncodeToString returns the padded encoding of src. Empty input yields "".
func (e *Encoding) EncodeToString(src []byte) string {
	if len(src) == 0 {
		return ""
	}
	return string(e.AppendEncode(make([]byte, 0, e.EncodedLen(len(src))), src))
}

// AppendEncode appends the padded encoding of src to dst and returns the
// extended buffer.
func (e *Encoding) AppendEncode(dst, src []byte) []byte {
	mask := uint64(1)<<e.bits - 1
	for i := 0; i < len(src); i += e.groupBytes {
		n := len(src) - i
		if n > e.groupBytes {
			n = e.groupBytes
		}
		var v uint64
		for j := 0; j < e.groupBytes; j++ {
			v <<= 8
			if j < n {
				v |= uint64(src[i+j])
			}
		}
		data := e.groupSyms - e.padFor[n%e.groupBytes]
		for j := 0; j < e.groupSyms; j++ {
			if j >= data {
				dst = append(dst, StdPadding)
				continue
			}
			shift := e.bits * uint(e.groupSyms-1-j)
			dst = append(dst, e.alphabet[(v>>shift)&mask])
		}
	}
	return dst
}

// DecodeString returns the bytes represented by the padded text s.
//
// Empty text fails with KindInvalidArgument, a length that is not a multiple
// of the group size with KindInvalidLength, and any symbol outside the
// alphabet (including misplaced padding) with KindInvalidCharacter.
func (e *Encoding) DecodeString(s string) ([]byte, error) {
	return e.AppendDecode(make([]byte, 0, e.DecodedLen(len(s))), s)
}

// AppendDecode decodes s and appends the bytes to dst. It applies the same
// validation as DecodeString; on failure dst is not returned.
func (e *Encoding) AppendDecode(dst []byte, s string) ([]byte, error) {
	if len(s) == 0 {
		return nil, codecerr.New(codecerr.KindInvalidArgument, e.name, e.rule+"-ARG-001", "empty input")
	}
	if len(s)%e.groupSyms != 0 {
		return nil, codecerr.New(codecerr.KindInvalidLength, e.name, e.rule+"-LEN-001",
			fmt.Sprintf("length %d is not a multiple of %d", len(s), e.groupSyms))
	}

	pad := e.countPadding(s)
	groups := len(s) / e.groupSyms
	for g := 0; g < groups; g++ {
		off := g * e.groupSyms
		last := g == groups-1
		data := e.groupSyms
		if last {
			data -= pad
		}

		var v uint64
		for j := 0; j < e.groupSyms; j++ {
			v <<= e.bits
			if j >= data {
				if s[off+j] != StdPadding {
					return nil, codecerr.At(codecerr.KindInvalidCharacter, e.name, e.rule+"-PAD-001", off+j,
						fmt.Sprintf("symbol %q inside padding", s[off+j]))
				}
				continue
			}
			c := s[off+j]
			d := e.decode[c]
			if d == invalidSymbol {
				return nil, codecerr.At(codecerr.KindInvalidCharacter, e.name, e.rule+"-CHR-001", off+j,
					fmt.Sprintf("invalid symbol %q", c))
			}
			v |= uint64(d)
		}

		keep := e.groupBytes
		if last {
			keep -= e.missing[pad]
			if e.mode == compliance.Strict && keep < e.groupBytes {
				dropped := uint(e.groupBytes-keep) * 8
				if v&(uint64(1)<<dropped-1) != 0 {
					return nil, codecerr.At(codecerr.KindInvalidCharacter, e.name, e.rule+"-CHR-002", off+data-1,
						"non-zero trailing bits")
				}
			}
		}
		for b := 0; b < keep; b++ {
			dst = append(dst, byte(v>>(8*uint(e.groupBytes-1-b))))
		}
	}
	return dst, nil
}

// countPadding counts trailing pad symbols by probing only the offsets from
// the end where padding can legally begin. Pad symbols anywhere else are left
// in the data region and rejected as invalid symbols.
func (e *Encoding) countPadding(s string) int {
	pad := 0
	for _, p := range e.padSlots {
		if s[len(s)-p] != StdPadding {
			break
		}
		pad = p
	}
	return pad
}
