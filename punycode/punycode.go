// Package punycode implements the RFC 3492 Bootstring encoding of Unicode
// code points into ASCII.
//
// All arithmetic is unsigned 32-bit. Both directions check every multiply and
// add for overflow and fail instead of wrapping.
package punycode

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"xdao.co/codec/codecerr"
)

const (
	base        uint32 = 36
	tMin        uint32 = 1
	tMax        uint32 = 26
	skew        uint32 = 38
	damp        uint32 = 700
	initialBias uint32 = 72
	initialN    uint32 = 0x80

	maxUint32 uint32 = math.MaxUint32

	// Delimiter separates the basic code points from the encoded deltas.
	Delimiter = '-'

	codecName = "punycode"
	digits    = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// digitValues maps an input byte to its digit value; base marks a non-digit.
// Upper-case letters decode like lower-case ones (RFC 3492 §5).
var digitValues = func() (t [256]uint32) {
	for i := range t {
		t[i] = base
	}
	for i := 0; i < len(digits); i++ {
		t[digits[i]] = uint32(i)
		if c := digits[i]; c >= 'a' && c <= 'z' {
			t[c-'a'+'A'] = uint32(i)
		}
	}
	return t
}()

func adapt(delta, numPoints uint32, firstTime bool) uint32 {
	if firstTime {
		delta /= damp
	} else {
		delta /= 2
	}
	delta += delta / numPoints
	k := uint32(0)
	for delta > ((base-tMin)*tMax)/2 {
		delta /= base - tMin
		k += base
	}
	return k + (base-tMin+1)*delta/(delta+skew)
}

func threshold(k, bias uint32) uint32 {
	switch {
	case k <= bias:
		return tMin
	case k >= bias+tMax:
		return tMax
	default:
		return k - bias
	}
}

func isScalar(c uint32) bool {
	return c <= unicode.MaxRune && (c < 0xD800 || c > 0xDFFF)
}

// Encode returns the Bootstring encoding of input. Empty input yields "".
//
// Basic code points (< 0x80) are copied first, in order. A delimiter follows
// them only when input also holds at least one non-basic code point, so an
// all-basic input encodes to itself.
func Encode(input []rune) (string, error) {
	return Codec{}.Encode(input)
}

// Decode returns the code points represented by the Bootstring text s.
// Empty input yields an empty sequence.
func Decode(s string) ([]rune, error) {
	return Codec{}.Decode(s)
}

func encode(input []rune) (string, error) {
	if len(input) == 0 {
		return "", nil
	}
	if uint64(len(input)) >= uint64(maxUint32) {
		return "", codecerr.New(codecerr.KindOverflow, codecName, "PUNY-OVF-004", "input too long for 32-bit state")
	}
	for i, r := range input {
		if r < 0 || !isScalar(uint32(r)) {
			return "", codecerr.At(codecerr.KindInvalidArgument, codecName, "PUNY-ARG-001", i,
				fmt.Sprintf("invalid code point U+%04X", uint32(r)))
		}
	}

	out := make([]byte, 0, len(input)+8)
	for _, r := range input {
		if r < rune(initialN) {
			out = append(out, byte(r))
		}
	}
	b := uint32(len(out))
	h := b
	total := uint32(len(input))
	if b > 0 && b < total {
		out = append(out, Delimiter)
	}

	n, delta, bias := initialN, uint32(0), initialBias
	for h < total {
		m := maxUint32
		for _, r := range input {
			if c := uint32(r); c >= n && c < m {
				m = c
			}
		}
		if m-n > (maxUint32-delta)/(h+1) {
			return "", codecerr.New(codecerr.KindOverflow, codecName, "PUNY-OVF-004", "delta overflow")
		}
		delta += (m - n) * (h + 1)
		n = m

		for _, r := range input {
			c := uint32(r)
			if c < n {
				if delta == maxUint32 {
					return "", codecerr.New(codecerr.KindOverflow, codecName, "PUNY-OVF-004", "delta overflow")
				}
				delta++
			}
			if c != n {
				continue
			}
			q := delta
			for k := base; ; k += base {
				t := threshold(k, bias)
				if q < t {
					break
				}
				out = append(out, digits[t+(q-t)%(base-t)])
				q = (q - t) / (base - t)
			}
			out = append(out, digits[q])
			bias = adapt(delta, h+1, h == b)
			delta = 0
			h++
		}
		if delta == maxUint32 {
			return "", codecerr.New(codecerr.KindOverflow, codecName, "PUNY-OVF-004", "delta overflow")
		}
		delta++
		n++
	}
	return string(out), nil
}

func decode(s string) ([]rune, error) {
	if len(s) == 0 {
		return []rune{}, nil
	}

	out := make([]rune, 0, len(s))
	pos := 0
	if b := strings.LastIndexByte(s, Delimiter); b >= 0 {
		for j := 0; j < b; j++ {
			if s[j] >= byte(initialN) {
				return nil, codecerr.At(codecerr.KindInvalidEncoding, codecName, "PUNY-ENC-001", j,
					"non-basic code point before delimiter")
			}
			out = append(out, rune(s[j]))
		}
		pos = b + 1
	}

	n, i, bias := initialN, uint32(0), initialBias
	for pos < len(s) {
		oldi, w := i, uint32(1)
		for k := base; ; k += base {
			if pos >= len(s) {
				return nil, codecerr.At(codecerr.KindInvalidEncoding, codecName, "PUNY-ENC-003", pos,
					"truncated variable-length integer")
			}
			digit := digitValues[s[pos]]
			if digit >= base {
				return nil, codecerr.At(codecerr.KindInvalidEncoding, codecName, "PUNY-ENC-002", pos,
					fmt.Sprintf("invalid digit %q", s[pos]))
			}
			if digit > (maxUint32-i)/w {
				return nil, codecerr.At(codecerr.KindOverflow, codecName, "PUNY-OVF-001", pos,
					"integer accumulation overflow")
			}
			pos++
			i += digit * w

			t := threshold(k, bias)
			if digit < t {
				break
			}
			// Only reachable once bias exceeds ~200, which valid prefixes never produce.
			if w > maxUint32/(base-t) {
				return nil, codecerr.At(codecerr.KindOverflow, codecName, "PUNY-OVF-002", pos-1,
					"digit weight overflow")
			}
			w *= base - t
		}

		length := uint32(len(out)) + 1
		bias = adapt(i-oldi, length, oldi == 0)
		if i/length > maxUint32-n {
			return nil, codecerr.At(codecerr.KindOverflow, codecName, "PUNY-OVF-003", pos-1,
				"code point overflow")
		}
		n += i / length
		i %= length
		if !isScalar(n) {
			return nil, codecerr.At(codecerr.KindInvalidEncoding, codecName, "PUNY-ENC-004", pos-1,
				fmt.Sprintf("decoded value 0x%X is not a Unicode scalar value", n))
		}

		out = append(out, 0)
		copy(out[i+1:], out[i:])
		out[i] = rune(n)
		i++
	}
	return out, nil
}
