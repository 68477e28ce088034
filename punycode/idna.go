package punycode

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"xdao.co/codec/codecerr"
)

// ACEPrefix marks a Punycode-encoded domain label.
const ACEPrefix = "xn--"

func isLabelSeparator(r rune) bool {
	return r == '.' || r == '。' || r == '．' || r == '｡'
}

// mapLabels applies fn to every label of a domain name. Anything up to and
// including an '@' is treated as an email local part and left untouched.
// IDNA full stops (U+3002, U+FF0E, U+FF61) are rewritten to '.'.
func mapLabels(s string, fn func(string) (string, error)) (string, error) {
	var prefix string
	if i := strings.IndexByte(s, '@'); i != -1 {
		prefix = s[:i+1]
		s = s[i+1:]
	}
	var labels []string
	start := 0
	for i, r := range s {
		if !isLabelSeparator(r) {
			continue
		}
		l, err := fn(s[start:i])
		if err != nil {
			return "", err
		}
		labels = append(labels, l)
		start = i + utf8.RuneLen(r)
	}
	l, err := fn(s[start:])
	if err != nil {
		return "", err
	}
	labels = append(labels, l)
	return prefix + strings.Join(labels, "."), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// ToASCII converts a Unicode domain name or email address to its ASCII form.
// Only labels holding non-ASCII code points are encoded, each gaining the
// "xn--" prefix; ASCII labels pass through unchanged.
func (c Codec) ToASCII(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", codecerr.New(codecerr.KindInvalidArgument, codecName, "PUNY-ARG-002", "domain is not valid UTF-8")
	}
	if c.NFC {
		s = norm.NFC.String(s)
	}
	return mapLabels(s, func(label string) (string, error) {
		if isASCII(label) {
			return label, nil
		}
		enc, err := c.Encode([]rune(label))
		if err != nil {
			return "", fmt.Errorf("label %q: %w", label, err)
		}
		return ACEPrefix + enc, nil
	})
}

// ToUnicode converts an ASCII domain name or email address to Unicode. Only
// labels carrying the "xn--" prefix (in any case) are decoded; a label that
// fails to decode is returned unchanged.
func (c Codec) ToUnicode(s string) string {
	out, _ := mapLabels(s, func(label string) (string, error) {
		if len(label) < len(ACEPrefix) || !strings.EqualFold(label[:len(ACEPrefix)], ACEPrefix) {
			return label, nil
		}
		dec, err := c.Decode(label[len(ACEPrefix):])
		if err != nil {
			return label, nil
		}
		return string(dec), nil
	})
	return out
}

// ToASCII converts a Unicode domain name or email address to its ASCII form.
func ToASCII(s string) (string, error) { return Codec{}.ToASCII(s) }

// ToUnicode converts an ASCII domain name or email address to Unicode.
func ToUnicode(s string) string { return Codec{}.ToUnicode(s) }
