package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/grpc"

	"xdao.co/codec/grpccodec"
	"xdao.co/codec/registry"
)

func runCLI(t *testing.T, input string, args ...string) (int, string, string) {
	t.Helper()
	old := stdin
	stdin = strings.NewReader(input)
	defer func() { stdin = old }()

	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_Usage(t *testing.T) {
	if code, _, _ := runCLI(t, ""); code != 2 {
		t.Fatalf("no args: code %d", code)
	}
	if code, out, _ := runCLI(t, "", "help"); code != 0 || !strings.Contains(out, "Usage:") {
		t.Fatalf("help: code %d out %q", code, out)
	}
	if code, _, errOut := runCLI(t, "", "bogus"); code != 2 || !strings.Contains(errOut, "unknown command") {
		t.Fatalf("bogus: code %d err %q", code, errOut)
	}
}

func TestEncodeDecode(t *testing.T) {
	cases := []struct {
		codec, in, want string
	}{
		{"base64", "Man", "TWFu"},
		{"base32", "foobar", "MZXW6YTBOI======"},
		{"base32hex", "foobar", "CPNMUOJ1E8======"},
		{"punycode", "bücher", "bcher-kva"},
	}
	for _, c := range cases {
		code, out, errOut := runCLI(t, "", "encode", "--codec", c.codec, "--text", c.in)
		if code != 0 || out != c.want+"\n" {
			t.Fatalf("encode %s: code %d out %q err %q", c.codec, code, out, errOut)
		}
		code, out, errOut = runCLI(t, c.want+"\n", "decode", "--codec", c.codec)
		if code != 0 || out != c.in {
			t.Fatalf("decode %s: code %d out %q err %q", c.codec, code, out, errOut)
		}
	}
}

func TestEncode_StdinAndFile(t *testing.T) {
	code, out, _ := runCLI(t, "Man", "encode", "--codec", "base64")
	if code != 0 || out != "TWFu\n" {
		t.Fatalf("stdin: code %d out %q", code, out)
	}

	path := filepath.Join(t.TempDir(), "in.bin")
	if err := os.WriteFile(path, []byte{0xfb, 0xff}, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	code, out, _ = runCLI(t, "", "encode", "--codec", "base64url", "--in", path)
	if code != 0 || out != "-_8=\n" {
		t.Fatalf("file: code %d out %q", code, out)
	}

	if code, _, _ := runCLI(t, "", "encode", "--codec", "base64", "--in", path, "--text", "x"); code != 1 {
		t.Fatalf("--in with --text: code %d", code)
	}
}

func TestEncode_EmptyText(t *testing.T) {
	code, out, _ := runCLI(t, "ignored", "encode", "--codec", "base32", "--text", "")
	if code != 0 || out != "\n" {
		t.Fatalf("code %d out %q", code, out)
	}
}

func TestDecode_Errors(t *testing.T) {
	code, _, errOut := runCLI(t, "", "decode", "--codec", "base32", "--text", "1234567")
	if code != 1 || !strings.Contains(errOut, "kind: InvalidLength") || !strings.Contains(errOut, "rule: B32-LEN-001") {
		t.Fatalf("code %d err %q", code, errOut)
	}
	code, _, errOut = runCLI(t, "", "decode", "--codec", "punycode", "--text", "xn--b")
	if code != 1 || !strings.Contains(errOut, "kind: InvalidEncoding") {
		t.Fatalf("code %d err %q", code, errOut)
	}
	code, _, _ = runCLI(t, "", "decode", "--codec", "base64", "--strict", "--text", "TR==")
	if code != 1 {
		t.Fatalf("strict trailing bits: code %d", code)
	}
	code, out, _ := runCLI(t, "", "decode", "--codec", "base64", "--hex", "--text", "TR==")
	if code != 0 || out != "4d\n" {
		t.Fatalf("permissive trailing bits: code %d out %q", code, out)
	}
	if code, _, _ := runCLI(t, "", "decode", "--codec", "base99", "--text", "x"); code != 2 {
		t.Fatalf("unknown codec: code %d", code)
	}
	if code, _, _ := runCLI(t, "", "decode", "--text", "x"); code != 2 {
		t.Fatalf("missing --codec: code %d", code)
	}
}

func TestMultibase(t *testing.T) {
	code, out, _ := runCLI(t, "", "encode", "--codec", "base64", "--multibase", "--text", "Man")
	if code != 0 || out != "MTWFu\n" {
		t.Fatalf("encode: code %d out %q", code, out)
	}
	code, out, _ = runCLI(t, "", "decode", "--multibase", "--text", "MTWFu")
	if code != 0 || out != "Man" {
		t.Fatalf("decode: code %d out %q", code, out)
	}
	if code, _, _ := runCLI(t, "", "encode", "--codec", "punycode", "--multibase", "--text", "ü"); code != 2 {
		t.Fatalf("punycode multibase: code %d", code)
	}
	if code, _, _ := runCLI(t, "", "decode", "--codec", "base64", "--multibase", "--text", "MTWFu"); code != 2 {
		t.Fatalf("--codec with --multibase: code %d", code)
	}
}

func TestIDNA(t *testing.T) {
	code, out, _ := runCLI(t, "", "idna", "to-ascii", "bücher.example")
	if code != 0 || out != "xn--bcher-kva.example\n" {
		t.Fatalf("to-ascii: code %d out %q", code, out)
	}
	code, out, _ = runCLI(t, "", "idna", "to-unicode", "xn--bcher-kva.example")
	if code != 0 || out != "bücher.example\n" {
		t.Fatalf("to-unicode: code %d out %q", code, out)
	}
	code, out, _ = runCLI(t, "", "idna", "to-ascii", "--nfc", "bücher.example")
	if code != 0 || out != "xn--bcher-kva.example\n" {
		t.Fatalf("to-ascii --nfc: code %d out %q", code, out)
	}
	if code, _, _ := runCLI(t, "", "idna", "to-ascii", "--max-runes", "3", "bücher.example"); code != 1 {
		t.Fatalf("--max-runes: code %d", code)
	}
	if code, _, _ := runCLI(t, "", "idna", "sideways", "x"); code != 2 {
		t.Fatalf("bad subcommand: code %d", code)
	}
}

func TestCodecs(t *testing.T) {
	code, out, _ := runCLI(t, "", "codecs")
	if code != 0 {
		t.Fatalf("code %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(registry.Names()) {
		t.Fatalf("listed %d codecs, want %d", len(lines), len(registry.Names()))
	}
	if !strings.HasPrefix(lines[0], "base32\tBase32\t") {
		t.Fatalf("first line = %q", lines[0])
	}
}

func TestVectors(t *testing.T) {
	root := filepath.Join("..", "..", "testdata", "conformance", "xdao-codec-1")
	path := filepath.Join(root, "vectors.tsv")
	pinned, err := os.ReadFile(filepath.Join(root, "vectors.cid"))
	if err != nil {
		t.Fatalf("read cid: %v", err)
	}

	code, out, errOut := runCLI(t, "", "vectors", "verify", "--mode", "strict", "--cid", strings.TrimSpace(string(pinned)), path)
	if code != 0 || !strings.HasPrefix(out, "OK ") {
		t.Fatalf("verify: code %d out %q err %q", code, out, errOut)
	}
	code, out, _ = runCLI(t, "", "vectors", "cid", path)
	if code != 0 || out != string(pinned) {
		t.Fatalf("cid: code %d out %q want %q", code, out, pinned)
	}

	bad := filepath.Join(t.TempDir(), "bad.tsv")
	if err := os.WriteFile(bad, []byte("base64\t4d616e\tTWFv\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	code, _, errOut = runCLI(t, "", "vectors", "verify", bad)
	if code != 1 || !strings.Contains(errOut, "FAIL line 1") {
		t.Fatalf("bad vectors: code %d err %q", code, errOut)
	}
	if code, _, _ := runCLI(t, "", "vectors", "verify", "--cid", strings.TrimSpace(string(pinned)), bad); code != 1 {
		t.Fatalf("cid mismatch: code %d", code)
	}
}

func TestRemote(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	srv := grpc.NewServer()
	codecSrv := grpccodec.NewServer(registry.List(), grpccodec.Uniform(registry.Options{}))
	grpccodec.RegisterCodecServer(srv, codecSrv, codecSrv.Codecs())
	go func() {
		_ = srv.Serve(lis)
	}()
	defer srv.Stop()
	addr := lis.Addr().String()

	code, out, errOut := runCLI(t, "", "remote", "encode", "--addr", addr, "--codec", "base64", "--text", "Man")
	if code != 0 || out != "TWFu\n" {
		t.Fatalf("remote encode: code %d out %q err %q", code, out, errOut)
	}
	code, out, _ = runCLI(t, "", "remote", "decode", "--addr", addr, "--codec", "punycode", "--text", "mnchen-3ya")
	if code != 0 || out != "münchen" {
		t.Fatalf("remote decode: code %d out %q", code, out)
	}
	code, _, errOut = runCLI(t, "", "remote", "decode", "--addr", addr, "--codec", "base64", "--text", "TWF")
	if code != 1 || !strings.Contains(errOut, "rule: B64-LEN-001") {
		t.Fatalf("remote error: code %d err %q", code, errOut)
	}
	if code, _, _ := runCLI(t, "", "remote", "sideways"); code != 2 {
		t.Fatalf("bad op: code %d", code)
	}
}
