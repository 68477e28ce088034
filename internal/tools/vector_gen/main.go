package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "xdao.co/codec/basen"
	"xdao.co/codec/cidutil"
	"xdao.co/codec/codecerr"
	"xdao.co/codec/conformance"
	_ "xdao.co/codec/punycode"
	"xdao.co/codec/registry"
)

type generator struct {
	vectors []conformance.Vector
}

func (g *generator) encode(codec string, text bool, payloads ...[]byte) {
	c, err := registry.Open(codec, registry.Options{})
	if err != nil {
		panic(err)
	}
	for _, p := range payloads {
		enc, err := c.Encode(p)
		if err != nil {
			panic(fmt.Sprintf("%s: encode %x: %v", codec, p, err))
		}
		g.vectors = append(g.vectors, conformance.Vector{
			Codec: codec, HasDecoded: true, Decoded: p, Text: text, Encoded: enc,
		})
	}
}

// emptyInput pins the encode("") == "" / decode("") failure asymmetry.
func (g *generator) emptyInput(codec string) {
	g.vectors = append(g.vectors, conformance.Vector{
		Codec: codec, HasDecoded: true, Decoded: []byte{}, WantKind: codecerr.KindInvalidArgument,
	})
}

func (g *generator) reject(codec string, kind codecerr.Kind, encoded ...string) {
	for _, e := range encoded {
		g.vectors = append(g.vectors, conformance.Vector{Codec: codec, Encoded: e, WantKind: kind})
	}
}

func strs(ss ...string) [][]byte {
	out := make([][]byte, 0, len(ss))
	for _, s := range ss {
		out = append(out, []byte(s))
	}
	return out
}

func build() []conformance.Vector {
	rfc4648 := strs("f", "fo", "foo", "foob", "fooba", "foobar")
	var g generator

	g.emptyInput("base32")
	g.encode("base32", false, rfc4648...)
	ramp := make([]byte, 0, 16)
	for b := 0; b < 256; b += 17 {
		ramp = append(ramp, byte(b))
	}
	g.encode("base32", false, ramp)
	g.reject("base32", codecerr.KindInvalidLength, "MZXW6")
	g.reject("base32", codecerr.KindInvalidCharacter, "MZXW6YQ1", "MZ=W6YQ=", "MZXW6Y=B")

	g.emptyInput("base32hex")
	g.encode("base32hex", false, rfc4648...)
	g.reject("base32hex", codecerr.KindInvalidCharacter, "CPNMUOJW")

	g.emptyInput("base64")
	g.encode("base64", false, append(rfc4648, strs("Man", "Ma", "M")...)...)
	g.encode("base64", false, []byte{0xfb, 0xff, 0xbf})
	g.reject("base64", codecerr.KindInvalidLength, "TWF")
	g.reject("base64", codecerr.KindInvalidCharacter, "TW!u", "====", "TQ=A", "-_8=")

	g.emptyInput("base64url")
	g.encode("base64url", false, rfc4648...)
	g.encode("base64url", false, []byte{0xfb, 0xff, 0xbf}, []byte{0xfb, 0xff})
	g.reject("base64url", codecerr.KindInvalidCharacter, "+/8=")

	g.encode("punycode", true, strs(
		"bücher",
		"münchen",
		"ü",
		"ليهمابتكلموشعربي؟",
		"他们为什么不说中文",
		"Pročprostěnemluvíčesky",
		"3年B組金八先生",
		"ひとつ屋根の下2",
		"a\U0001F600b",
	)...)
	g.reject("punycode", codecerr.KindInvalidEncoding, "xn--b", "abc-de!", "ü-a")
	g.reject("punycode", codecerr.KindOverflow, "99999999999", "abc-999999999999999", "4z902716a")
	g.reject("punycode", codecerr.KindInvalidEncoding, "ib9b")

	return g.vectors
}

func conformanceBytes() []byte { return conformance.Format(build()) }

func main() {
	outDir := flag.String("out", filepath.Join("testdata", "conformance", "xdao-codec-1"), "Output directory")
	flag.Parse()

	vectors := build()
	rep := conformance.Verify(vectors, conformance.LocalOpener(registry.Options{}))
	if !rep.OK() {
		for _, f := range rep.Failures {
			fmt.Fprintln(os.Stderr, f)
		}
		os.Exit(1)
	}

	b := conformance.Format(vectors)
	cid := cidutil.CIDv1RawSHA256(b)
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(filepath.Join(*outDir, "vectors.tsv"), b, 0o644); err != nil {
		panic(err)
	}
	if err := os.WriteFile(filepath.Join(*outDir, "vectors.cid"), []byte(cid+"\n"), 0o644); err != nil {
		panic(err)
	}
	fmt.Printf("CID=%s\n", cid)
	fmt.Printf("vectors=%d\n", len(vectors))
}
