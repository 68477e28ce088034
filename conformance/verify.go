package conformance

import (
	"bytes"
	"fmt"

	"xdao.co/codec/codecerr"
	"xdao.co/codec/registry"
)

// Opener resolves a codec name to an implementation under test.
type Opener func(codec string) (registry.TextCodec, error)

// LocalOpener opens codecs from the in-process registry.
func LocalOpener(opts registry.Options) Opener {
	return func(codec string) (registry.TextCodec, error) {
		return registry.Open(codec, opts)
	}
}

// Failure describes one vector that did not hold.
type Failure struct {
	Vector Vector
	Reason string
}

func (f Failure) String() string {
	return fmt.Sprintf("line %d (%s %q): %s", f.Vector.Line, f.Vector.Codec, f.Vector.Encoded, f.Reason)
}

// Report summarizes a Verify run.
type Report struct {
	Total    int
	Passed   int
	Failures []Failure
}

// OK reports whether every vector passed.
func (r Report) OK() bool { return len(r.Failures) == 0 }

// Verify checks every vector against the codecs returned by open.
// Codecs are opened once per name.
func Verify(vectors []Vector, open Opener) Report {
	var rep Report
	opened := map[string]registry.TextCodec{}
	openErr := map[string]error{}
	for _, v := range vectors {
		rep.Total++
		c, ok := opened[v.Codec]
		if !ok {
			if err, seen := openErr[v.Codec]; seen {
				rep.Failures = append(rep.Failures, Failure{Vector: v, Reason: err.Error()})
				continue
			}
			var err error
			c, err = open(v.Codec)
			if err != nil {
				openErr[v.Codec] = err
				rep.Failures = append(rep.Failures, Failure{Vector: v, Reason: err.Error()})
				continue
			}
			opened[v.Codec] = c
		}
		if reason := check(c, v); reason != "" {
			rep.Failures = append(rep.Failures, Failure{Vector: v, Reason: reason})
			continue
		}
		rep.Passed++
	}
	return rep
}

func check(c registry.TextCodec, v Vector) string {
	if v.HasDecoded {
		got, err := c.Encode(v.Decoded)
		if err != nil {
			return fmt.Sprintf("encode: %v", err)
		}
		if got != v.Encoded {
			return fmt.Sprintf("encode: got %q", got)
		}
	}

	dec, err := c.Decode(v.Encoded)
	if v.WantKind != "" {
		if err == nil {
			return fmt.Sprintf("decode: expected %s error, got success", v.WantKind)
		}
		if k := codecerr.KindOf(err); k != v.WantKind {
			return fmt.Sprintf("decode: expected %s error, got %q (%v)", v.WantKind, k, err)
		}
		return ""
	}
	if err != nil {
		return fmt.Sprintf("decode: %v", err)
	}
	if !bytes.Equal(dec, v.Decoded) {
		return fmt.Sprintf("decode: got %x", dec)
	}
	return ""
}
