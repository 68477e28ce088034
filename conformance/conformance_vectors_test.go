package conformance

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	_ "xdao.co/codec/basen"
	"xdao.co/codec/cidutil"
	"xdao.co/codec/codecerr"
	"xdao.co/codec/compliance"
	_ "xdao.co/codec/punycode"
	"xdao.co/codec/registry"
)

var vectorRoot = filepath.Join("..", "testdata", "conformance", "xdao-codec-1")

func TestConformanceVectors_CanonicalAndCID(t *testing.T) {
	path := filepath.Join(vectorRoot, "vectors.tsv")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read vectors: %v", err)
	}
	wantCID, err := os.ReadFile(filepath.Join(vectorRoot, "vectors.cid"))
	if err != nil {
		t.Fatalf("read cid: %v", err)
	}
	if err := cidutil.Check(b, string(wantCID)); err != nil {
		t.Fatalf("%v", err)
	}
	got, err := FileCID(path)
	if err != nil {
		t.Fatalf("FileCID: %v", err)
	}
	if got != strings.TrimSpace(string(wantCID)) {
		t.Fatalf("FileCID = %s, want %s", got, strings.TrimSpace(string(wantCID)))
	}

	vectors, err := Parse(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(Format(vectors), b) {
		t.Fatalf("vector file is not in canonical form")
	}
}

func TestConformanceVectors_AllCodecs(t *testing.T) {
	vectors, err := Load(filepath.Join(vectorRoot, "vectors.tsv"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	covered := map[string]bool{}
	for _, v := range vectors {
		covered[v.Codec] = true
	}
	for _, name := range registry.Names() {
		if !covered[name] {
			t.Fatalf("no vectors for registered codec %q", name)
		}
	}

	for _, mode := range []compliance.Mode{compliance.Permissive, compliance.Strict} {
		rep := Verify(vectors, LocalOpener(registry.Options{Mode: mode}))
		if !rep.OK() {
			for _, f := range rep.Failures {
				t.Errorf("%s: %s", mode, f)
			}
			t.FailNow()
		}
		if rep.Passed != len(vectors) || rep.Total != len(vectors) {
			t.Fatalf("%s: passed %d of %d", mode, rep.Passed, rep.Total)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"too few fields":     "base32\t66\n",
		"too many fields":    "base32\t66\tMY======\tInvalidLength\textra\n",
		"missing codec":      "\t66\tMY======\n",
		"bad hex":            "base32\tzz\tMY======\n",
		"unknown kind":       "base32\t-\tMZXW6\tBogus\n",
		"decode-only no err": "base32\t-\tMZXW6\n",
		"bad code point":     "punycode\tU+D800\tx\n",
		"bad code point hex": "punycode\tU+XYZ\tx\n",
		"missing prefix":     "punycode\tU+0061 0062\tx\n",
	}
	for name, in := range cases {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParse_CommentsAndLines(t *testing.T) {
	in := "# header\n\nbase64\t4d616e\tTWFu\n# trailing\npunycode\tU+0062 U+00FC\tb-eha\n"
	vectors, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if vectors[0].Line != 3 || vectors[1].Line != 5 {
		t.Fatalf("line numbers = %d, %d", vectors[0].Line, vectors[1].Line)
	}
	if string(vectors[1].Decoded) != "bü" || !vectors[1].Text {
		t.Fatalf("decoded = %q text=%v", vectors[1].Decoded, vectors[1].Text)
	}
}

type brokenCodec struct{}

func (brokenCodec) Encode([]byte) (string, error) { return "nope", nil }
func (brokenCodec) Decode(string) ([]byte, error) {
	return nil, codecerr.New(codecerr.KindInvalidLength, "broken", "X-001", "always")
}

func TestVerify_ReportsFailures(t *testing.T) {
	vectors := []Vector{
		{Line: 1, Codec: "broken", HasDecoded: true, Decoded: []byte("a"), Encoded: "YQ=="},
		{Line: 2, Codec: "broken", Encoded: "abc", WantKind: codecerr.KindInvalidLength},
		{Line: 3, Codec: "broken", Encoded: "abc", WantKind: codecerr.KindOverflow},
		{Line: 4, Codec: "missing", Encoded: "abc", WantKind: codecerr.KindOverflow},
		{Line: 5, Codec: "missing", Encoded: "abc", WantKind: codecerr.KindOverflow},
	}
	rep := Verify(vectors, func(name string) (registry.TextCodec, error) {
		if name == "broken" {
			return brokenCodec{}, nil
		}
		return registry.Open(name, registry.Options{})
	})
	if rep.Total != 5 || rep.Passed != 1 || len(rep.Failures) != 4 {
		t.Fatalf("report = %+v", rep)
	}
	var lines []int
	for _, f := range rep.Failures {
		lines = append(lines, f.Vector.Line)
	}
	if diff := cmp.Diff([]int{1, 3, 4, 5}, lines); diff != "" {
		t.Fatalf("failed lines (-want +got):\n%s", diff)
	}
	if !strings.Contains(rep.Failures[2].String(), "line 4") {
		t.Fatalf("failure string = %q", rep.Failures[2].String())
	}
}
