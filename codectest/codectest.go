// Package codectest is a reusable conformance suite for registry.TextCodec
// implementations, local or remote.
package codectest

import (
	"bytes"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"xdao.co/codec/codecerr"
	"xdao.co/codec/registry"
)

// NewCodec constructs the codec under test.
type NewCodec func(t *testing.T) registry.TextCodec

// Suite describes one codec run through RunTextCodecConformance.
type Suite struct {
	New NewCodec

	// Samples must round-trip through Encode and Decode unchanged.
	Samples [][]byte
	// Invalid holds encoded texts Decode must reject with a *codecerr.Error.
	Invalid []string
}

// SuiteFor returns the standard samples and invalid inputs for a codec
// registered under name.
func SuiteFor(name string, newCodec NewCodec) Suite {
	s := Suite{New: newCodec}
	if name == "punycode" {
		s.Samples = [][]byte{
			[]byte("bücher"),
			[]byte("münchen"),
			[]byte("他们为什么不说中文"),
			[]byte("ひとつ屋根の下2"),
			[]byte("a😀b"),
			[]byte("-> $1.00 <-ü"),
		}
		s.Invalid = []string{"xn--b", "abc-de!", "99999999999"}
		return s
	}

	rng := rand.New(rand.NewSource(4648))
	for n := 1; n <= 33; n++ {
		b := make([]byte, n)
		rng.Read(b)
		s.Samples = append(s.Samples, b)
	}
	s.Samples = append(s.Samples, []byte{0}, []byte{0xff, 0xff, 0xff})
	s.Invalid = []string{"", "A", "!!!!!!!!", "========"}
	return s
}

// RunTextCodecConformance runs the shared TextCodec checks.
func RunTextCodecConformance(t *testing.T, s Suite) {
	t.Helper()

	t.Run("RoundTrip", func(t *testing.T) {
		c := s.New(t)
		for _, want := range s.Samples {
			enc, err := c.Encode(want)
			if err != nil {
				t.Fatalf("Encode(%x) failed: %v", want, err)
			}
			got, err := c.Decode(enc)
			if err != nil {
				t.Fatalf("Decode(%q) failed: %v", enc, err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("round trip mismatch: got %x want %x", got, want)
			}
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		c := s.New(t)
		for _, b := range s.Samples {
			e1, err := c.Encode(b)
			if err != nil {
				t.Fatalf("Encode(1) failed: %v", err)
			}
			e2, err := c.Encode(b)
			if err != nil {
				t.Fatalf("Encode(2) failed: %v", err)
			}
			if e1 != e2 {
				t.Fatalf("Encode not deterministic: %q vs %q", e1, e2)
			}
		}
	})

	t.Run("InvalidRejected", func(t *testing.T) {
		c := s.New(t)
		for _, in := range s.Invalid {
			_, err := c.Decode(in)
			if err == nil {
				t.Fatalf("Decode(%q): expected error", in)
			}
			var ce *codecerr.Error
			if !errors.As(err, &ce) {
				t.Fatalf("Decode(%q): expected *codecerr.Error, got %T (%v)", in, err, err)
			}
			if ce.Kind == "" || ce.RuleID == "" {
				t.Fatalf("Decode(%q): missing Kind/RuleID: %+v", in, ce)
			}
		}
	})

	t.Run("ConcurrentUse", func(t *testing.T) {
		c := s.New(t)
		var wg sync.WaitGroup
		errs := make(chan error, len(s.Samples))
		for _, b := range s.Samples {
			wg.Add(1)
			go func(b []byte) {
				defer wg.Done()
				enc, err := c.Encode(b)
				if err != nil {
					errs <- err
					return
				}
				got, err := c.Decode(enc)
				if err != nil {
					errs <- err
					return
				}
				if !bytes.Equal(got, b) {
					errs <- errors.New("concurrent round trip mismatch")
				}
			}(b)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("%v", err)
		}
	})
}
