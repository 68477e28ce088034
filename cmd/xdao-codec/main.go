package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"xdao.co/codec/basen"
	"xdao.co/codec/cidutil"
	"xdao.co/codec/codecerr"
	"xdao.co/codec/compliance"
	"xdao.co/codec/conformance"
	"xdao.co/codec/grpccodec"
	"xdao.co/codec/punycode"
	"xdao.co/codec/registry"
)

var stdin io.Reader = os.Stdin

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "encode":
		return cmdEncode(args[1:], out, errOut)
	case "decode":
		return cmdDecode(args[1:], out, errOut)
	case "idna":
		return cmdIDNA(args[1:], out, errOut)
	case "codecs":
		return cmdCodecs(args[1:], out, errOut)
	case "vectors":
		return cmdVectors(args[1:], out, errOut)
	case "remote":
		return cmdRemote(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-codec: Base32/Base64/Punycode codec CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-codec encode --codec <name> [--in <file>|--text <s>] [--multibase] [--nfc]")
	fmt.Fprintln(w, "  xdao-codec decode (--codec <name> | --multibase) [--in <file>|--text <s>] [--strict] [--hex]")
	fmt.Fprintln(w, "  xdao-codec idna to-ascii [--nfc] <domain>")
	fmt.Fprintln(w, "  xdao-codec idna to-unicode <domain>")
	fmt.Fprintln(w, "  xdao-codec codecs")
	fmt.Fprintln(w, "  xdao-codec vectors verify [--mode permissive|strict] [--cid <CID>] <vectors.tsv>")
	fmt.Fprintln(w, "  xdao-codec vectors cid <file>")
	fmt.Fprintln(w, "  xdao-codec remote encode|decode --addr <host:port> --codec <name> [--in <file>|--text <s>] [--hex]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - input is read from stdin when neither --in nor --text is given (--in - also reads stdin)")
	fmt.Fprintln(w, "  - decode and punycode encode strip one trailing newline from their input")
	fmt.Fprintln(w, "  - punycode input and output are UTF-8 text")
	fmt.Fprintln(w, "  - multibase uses prefixes C (base32), T (base32hex), M (base64), U (base64url)")
}

func readInput(path, text string, textSet bool) ([]byte, error) {
	switch {
	case textSet && path != "":
		return nil, errors.New("--in and --text are mutually exclusive")
	case textSet:
		return []byte(text), nil
	case path == "" || path == "-":
		return io.ReadAll(stdin)
	default:
		return os.ReadFile(path)
	}
}

func trimNewline(b []byte) string {
	s := string(b)
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// textFlag records whether --text was given, so that --text "" is distinct
// from reading stdin.
type textFlag struct {
	value string
	set   bool
}

func (f *textFlag) String() string { return f.value }
func (f *textFlag) Set(s string) error {
	f.value, f.set = s, true
	return nil
}

func reportErr(errOut io.Writer, op string, err error) int {
	fmt.Fprintf(errOut, "%s: %v\n", op, err)
	var ce *codecerr.Error
	if errors.As(err, &ce) {
		fmt.Fprintf(errOut, "kind: %s\nrule: %s\n", ce.Kind, ce.RuleID)
	}
	return 1
}

func cmdEncode(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var codecName, inPath string
	var text textFlag
	var useMultibase, nfc bool
	fs.StringVar(&codecName, "codec", "", "Codec name (see: xdao-codec codecs)")
	fs.StringVar(&inPath, "in", "", "Input file (- for stdin)")
	fs.Var(&text, "text", "Input text")
	fs.BoolVar(&useMultibase, "multibase", false, "Prefix the output with its multibase code (Base-N codecs only)")
	fs.BoolVar(&nfc, "nfc", false, "Normalize punycode input to NFC first")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if codecName == "" || fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: xdao-codec encode --codec <name> [--in <file>|--text <s>] [--multibase] [--nfc]")
		return 2
	}
	in, err := readInput(inPath, text.value, text.set)
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 1
	}

	var encoded string
	switch {
	case useMultibase:
		enc, ok := basen.ByName(codecName)
		if !ok {
			fmt.Fprintf(errOut, "--multibase is not supported for codec %q\n", codecName)
			return 2
		}
		encoded, err = basen.EncodeMultibase(enc, in)
	case codecName == "punycode":
		encoded, err = punycode.Codec{NFC: nfc}.EncodeString(trimNewline(in))
	default:
		var c registry.TextCodec
		c, err = registry.Open(codecName, registry.Options{})
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		encoded, err = c.Encode(in)
	}
	if err != nil {
		return reportErr(errOut, "encode", err)
	}
	_, _ = fmt.Fprintln(out, encoded)
	return 0
}

func cmdDecode(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var codecName, inPath string
	var text textFlag
	var useMultibase, strict, asHex bool
	fs.StringVar(&codecName, "codec", "", "Codec name (see: xdao-codec codecs)")
	fs.StringVar(&inPath, "in", "", "Input file (- for stdin)")
	fs.Var(&text, "text", "Input text")
	fs.BoolVar(&useMultibase, "multibase", false, "Input carries a multibase prefix selecting the codec")
	fs.BoolVar(&strict, "strict", false, "Reject non-canonical input")
	fs.BoolVar(&asHex, "hex", false, "Print decoded bytes as hex")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if (codecName == "") == !useMultibase || fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: xdao-codec decode (--codec <name> | --multibase) [--in <file>|--text <s>] [--strict] [--hex]")
		return 2
	}
	in, err := readInput(inPath, text.value, text.set)
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 1
	}
	mode := compliance.Permissive
	if strict {
		mode = compliance.Strict
	}

	var decoded []byte
	if useMultibase {
		_, decoded, err = basen.DecodeMultibase(trimNewline(in), mode)
	} else {
		var c registry.TextCodec
		c, err = registry.Open(codecName, registry.Options{Mode: mode})
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		decoded, err = c.Decode(trimNewline(in))
	}
	if err != nil {
		return reportErr(errOut, "decode", err)
	}
	return writeDecoded(out, decoded, asHex)
}

func writeDecoded(out io.Writer, b []byte, asHex bool) int {
	if asHex {
		_, _ = fmt.Fprintln(out, hex.EncodeToString(b))
		return 0
	}
	_, _ = out.Write(b)
	return 0
}

func cmdIDNA(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-codec idna <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: to-ascii, to-unicode")
		return 2
	}
	switch args[0] {
	case "to-ascii":
		fs := flag.NewFlagSet("idna to-ascii", flag.ContinueOnError)
		fs.SetOutput(errOut)
		var nfc bool
		var maxRunes int
		fs.BoolVar(&nfc, "nfc", false, "Normalize to NFC first")
		fs.IntVar(&maxRunes, "max-runes", 0, "Reject labels longer than this many code points (0 = no limit)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-codec idna to-ascii [--nfc] <domain>")
			return 2
		}
		s, err := punycode.Codec{NFC: nfc, MaxRunes: maxRunes}.ToASCII(fs.Arg(0))
		if err != nil {
			return reportErr(errOut, "to-ascii", err)
		}
		_, _ = fmt.Fprintln(out, s)
		return 0
	case "to-unicode":
		fs := flag.NewFlagSet("idna to-unicode", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-codec idna to-unicode <domain>")
			return 2
		}
		_, _ = fmt.Fprintln(out, punycode.ToUnicode(fs.Arg(0)))
		return 0
	default:
		fmt.Fprintf(errOut, "unknown idna subcommand: %s\n", args[0])
		return 2
	}
}

func cmdCodecs(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintln(errOut, "usage: xdao-codec codecs")
		return 2
	}
	for _, c := range registry.List() {
		_, _ = fmt.Fprintf(out, "%s\t%s\t%s\n", c.Name, c.Method, c.Description)
	}
	return 0
}

func cmdVectors(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-codec vectors <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: verify, cid")
		return 2
	}
	switch args[0] {
	case "verify":
		fs := flag.NewFlagSet("vectors verify", flag.ContinueOnError)
		fs.SetOutput(errOut)
		var modeStr, pinned string
		fs.StringVar(&modeStr, "mode", "permissive", "Compliance mode: permissive|strict")
		fs.StringVar(&pinned, "cid", "", "Expected CID of the vector file")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-codec vectors verify [--mode permissive|strict] [--cid <CID>] <vectors.tsv>")
			return 2
		}
		mode, err := compliance.ParseMode(modeStr)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		path := fs.Arg(0)
		if pinned != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(errOut, "read vectors: %v\n", err)
				return 1
			}
			if err := cidutil.Check(b, pinned); err != nil {
				fmt.Fprintln(errOut, err)
				return 1
			}
		}
		vectors, err := conformance.Load(path)
		if err != nil {
			fmt.Fprintf(errOut, "load vectors: %v\n", err)
			return 1
		}
		rep := conformance.Verify(vectors, conformance.LocalOpener(registry.Options{Mode: mode}))
		for _, f := range rep.Failures {
			fmt.Fprintf(errOut, "FAIL %s\n", f)
		}
		if !rep.OK() {
			fmt.Fprintf(errOut, "%d of %d vectors failed\n", len(rep.Failures), rep.Total)
			return 1
		}
		_, _ = fmt.Fprintf(out, "OK %d/%d\n", rep.Passed, rep.Total)
		return 0
	case "cid":
		fs := flag.NewFlagSet("vectors cid", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: xdao-codec vectors cid <file>")
			return 2
		}
		cid, err := conformance.FileCID(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "cid: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, cid)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown vectors subcommand: %s\n", args[0])
		return 2
	}
}

func cmdRemote(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || (args[0] != "encode" && args[0] != "decode") {
		fmt.Fprintln(errOut, "usage: xdao-codec remote encode|decode --addr <host:port> --codec <name> [--in <file>|--text <s>] [--hex]")
		return 2
	}
	op := args[0]
	fs := flag.NewFlagSet("remote "+op, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var addr, codecName, inPath string
	var text textFlag
	var asHex bool
	var dialTimeout, timeout time.Duration
	fs.StringVar(&addr, "addr", "127.0.0.1:7878", "Codec daemon address")
	fs.StringVar(&codecName, "codec", "", "Codec name")
	fs.StringVar(&inPath, "in", "", "Input file (- for stdin)")
	fs.Var(&text, "text", "Input text")
	fs.BoolVar(&asHex, "hex", false, "Print decoded bytes as hex (decode only)")
	fs.DurationVar(&dialTimeout, "dial-timeout", 5*time.Second, "Dial timeout")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "Per-RPC timeout")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if codecName == "" || fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: xdao-codec remote encode|decode --addr <host:port> --codec <name> [--in <file>|--text <s>] [--hex]")
		return 2
	}
	in, err := readInput(inPath, text.value, text.set)
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 1
	}

	client, err := grpccodec.Dial(addr, grpccodec.DialOptions{Timeout: dialTimeout})
	if err != nil {
		fmt.Fprintf(errOut, "dial: %v\n", err)
		return 1
	}
	defer client.Close()
	client.Timeout = timeout

	c, err := client.Codec(codecName)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if op == "encode" {
		s, err := c.Encode(in)
		if err != nil {
			return reportErr(errOut, "encode", err)
		}
		_, _ = fmt.Fprintln(out, s)
		return 0
	}
	b, err := c.Decode(trimNewline(in))
	if err != nil {
		return reportErr(errOut, "decode", err)
	}
	return writeDecoded(out, b, asHex)
}
