package basen

import (
	"fmt"

	"xdao.co/codec/codecerr"
	"xdao.co/codec/registry"
)

func init() {
	for _, r := range []struct {
		enc    *Encoding
		method string
		desc   string
	}{
		{Base32, "Base32", "RFC 4648 base32, '=' padded"},
		{Base32Hex, "Base32Hex", "RFC 4648 base32 extended hex, '=' padded"},
		{Base64, "Base64", "RFC 4648 base64, '=' padded"},
		{Base64URL, "Base64URL", "RFC 4648 base64 URL-safe, '=' padded"},
	} {
		enc := r.enc
		registry.MustRegister(registry.Codec{
			Name:        enc.Name(),
			Description: r.desc,
			Method:      r.method,
			Open: func(opts registry.Options) registry.TextCodec {
				return textCodec{enc: enc.WithMode(opts.Mode), max: opts.MaxInput}
			},
		})
	}
}

// textCodec adapts an Encoding to registry.TextCodec and applies the input cap.
type textCodec struct {
	enc *Encoding
	max int
}

func (c textCodec) Encode(src []byte) (string, error) {
	if c.max > 0 && len(src) > c.max {
		return "", codecerr.New(codecerr.KindInputTooLarge, c.enc.name, c.enc.rule+"-CAP-001",
			fmt.Sprintf("input of %d bytes exceeds limit %d", len(src), c.max))
	}
	return c.enc.EncodeToString(src), nil
}

func (c textCodec) Decode(s string) ([]byte, error) {
	if c.max > 0 && len(s) > c.max {
		return nil, codecerr.New(codecerr.KindInputTooLarge, c.enc.name, c.enc.rule+"-CAP-002",
			fmt.Sprintf("input of %d symbols exceeds limit %d", len(s), c.max))
	}
	return c.enc.DecodeString(s)
}
