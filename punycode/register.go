package punycode

import (
	"xdao.co/codec/registry"
)

func init() {
	registry.MustRegister(registry.Codec{
		Name:        codecName,
		Description: "RFC 3492 Bootstring over UTF-8 text",
		Method:      "Punycode",
		Open: func(opts registry.Options) registry.TextCodec {
			return textCodec{Codec{MaxRunes: opts.MaxInput, Mode: opts.Mode}}
		},
	})
}

// textCodec exposes Codec over UTF-8 byte payloads.
type textCodec struct{ c Codec }

func (t textCodec) Encode(src []byte) (string, error) { return t.c.EncodeString(string(src)) }

func (t textCodec) Decode(s string) ([]byte, error) {
	out, err := t.c.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
