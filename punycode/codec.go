package punycode

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"xdao.co/codec/codecerr"
	"xdao.co/codec/compliance"
)

// Codec carries the hardening knobs for Punycode conversion. The zero value
// imposes no limits and decodes permissively, matching Encode and Decode.
type Codec struct {
	// MaxRunes caps the code points accepted by Encode and the bytes accepted
	// by Decode. Zero disables the cap.
	MaxRunes int

	// Mode Strict rejects Bootstring text that does not re-encode to itself
	// (ignoring the case of the digits), e.g. "abc-" or a leading delimiter.
	Mode compliance.Mode

	// NFC normalizes string input to Unicode Normalization Form C before
	// encoding. It affects EncodeString and ToASCII only.
	NFC bool
}

// Encode returns the Bootstring encoding of input.
func (c Codec) Encode(input []rune) (string, error) {
	if c.MaxRunes > 0 && len(input) > c.MaxRunes {
		return "", codecerr.New(codecerr.KindInputTooLarge, codecName, "PUNY-CAP-001",
			fmt.Sprintf("input of %d code points exceeds limit %d", len(input), c.MaxRunes))
	}
	return encode(input)
}

// Decode returns the code points represented by s.
func (c Codec) Decode(s string) ([]rune, error) {
	if c.MaxRunes > 0 && len(s) > c.MaxRunes {
		return nil, codecerr.New(codecerr.KindInputTooLarge, codecName, "PUNY-CAP-001",
			fmt.Sprintf("input of %d bytes exceeds limit %d", len(s), c.MaxRunes))
	}
	out, err := decode(s)
	if err != nil {
		return nil, err
	}
	if c.Mode == compliance.Strict {
		if err := checkCanonical(s, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// EncodeString encodes the code points of the UTF-8 string s.
func (c Codec) EncodeString(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", codecerr.New(codecerr.KindInvalidArgument, codecName, "PUNY-ARG-002", "input is not valid UTF-8")
	}
	if c.NFC {
		s = norm.NFC.String(s)
	}
	return c.Encode([]rune(s))
}

// DecodeString decodes s and returns the result as a UTF-8 string.
func (c Codec) DecodeString(s string) (string, error) {
	out, err := c.Decode(s)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeString encodes the code points of the UTF-8 string s.
func EncodeString(s string) (string, error) { return Codec{}.EncodeString(s) }

// DecodeString decodes s and returns the result as a UTF-8 string.
func DecodeString(s string) (string, error) { return Codec{}.DecodeString(s) }

// checkCanonical reports whether s is the exact encoding of decoded, with
// digit case ignored after the last delimiter.
func checkCanonical(s string, decoded []rune) error {
	again, err := encode(decoded)
	if err != nil {
		return err
	}
	want := strings.ToLower(s)
	if b := strings.LastIndexByte(s, Delimiter); b >= 0 {
		want = s[:b+1] + strings.ToLower(s[b+1:])
	}
	if again != want {
		return codecerr.New(codecerr.KindInvalidEncoding, codecName, "PUNY-ENC-005",
			fmt.Sprintf("non-canonical encoding (canonical form is %q)", again))
	}
	return nil
}
