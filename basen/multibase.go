package basen

import (
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"

	"xdao.co/codec/codecerr"
	"xdao.co/codec/compliance"
)

var multibaseCodes = map[*Encoding]multibase.Encoding{
	Base32:    multibase.Base32padUpper,
	Base32Hex: multibase.Base32hexPadUpper,
	Base64:    multibase.Base64pad,
	Base64URL: multibase.Base64urlPad,
}

// MultibaseCode returns the multibase prefix for one of the package-level
// encodings (or a mode variant of one).
func MultibaseCode(e *Encoding) (multibase.Encoding, bool) {
	for enc, code := range multibaseCodes {
		if enc.alphabet == e.alphabet {
			return code, true
		}
	}
	return 0, false
}

// EncodeMultibase returns the multibase-prefixed padded encoding of src.
func EncodeMultibase(e *Encoding, src []byte) (string, error) {
	code, ok := MultibaseCode(e)
	if !ok {
		return "", codecerr.New(codecerr.KindInvalidArgument, e.name, "MB-ARG-001",
			"encoding has no multibase code")
	}
	return string(rune(code)) + e.EncodeToString(src), nil
}

// DecodeMultibase decodes multibase text whose prefix names one of the
// padded encodings this package implements. The payload is decoded under mode
// with the same rules as DecodeString, so an empty payload is rejected.
// Error offsets are relative to s, prefix included.
func DecodeMultibase(s string, mode compliance.Mode) (*Encoding, []byte, error) {
	if len(s) == 0 {
		return nil, nil, codecerr.New(codecerr.KindInvalidArgument, "multibase", "MB-ARG-002", "empty input")
	}
	code := multibase.Encoding(s[0])
	for enc, c := range multibaseCodes {
		if c != code {
			continue
		}
		b, err := enc.WithMode(mode).DecodeString(s[1:])
		if err != nil {
			var ce *codecerr.Error
			if errors.As(err, &ce) && ce.Offset >= 0 {
				ce.Offset++
			}
			return nil, nil, err
		}
		return enc, b, nil
	}
	name, known := multibase.EncodingToStr[code]
	if known {
		return nil, nil, codecerr.At(codecerr.KindInvalidCharacter, "multibase", "MB-CHR-002", 0,
			fmt.Sprintf("unsupported multibase %s", name))
	}
	return nil, nil, codecerr.At(codecerr.KindInvalidCharacter, "multibase", "MB-CHR-001", 0,
		fmt.Sprintf("unknown multibase prefix %q", s[0]))
}
