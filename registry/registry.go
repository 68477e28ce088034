// Package registry holds the named text codecs linked into a binary.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"xdao.co/codec/compliance"
)

// TextCodec converts between raw bytes and a text-safe representation.
//
// Implementations must be safe for concurrent use.
type TextCodec interface {
	Encode(src []byte) (string, error)
	Decode(s string) ([]byte, error)
}

// Options configures a TextCodec at Open time.
type Options struct {
	Mode compliance.Mode

	// MaxInput caps the input accepted by Encode (bytes) and Decode (symbols).
	// Zero disables the cap.
	MaxInput int
}

// Codec is a build-time plugin that can open a TextCodec.
//
// Codec packages register themselves in init():
//
//	registry.MustRegister(registry.Codec{ ... })
//
// The binary must import the codec package for registration to occur.
type Codec struct {
	Name        string
	Description string

	// Method is the RPC method suffix, e.g. "Base32" for EncodeBase32/DecodeBase32.
	Method string

	Open func(Options) TextCodec
}

var (
	mu     sync.RWMutex
	codecs = map[string]Codec{}
)

// Register registers a codec.
func Register(c Codec) error {
	if c.Name == "" {
		return fmt.Errorf("registry: codec name is required")
	}
	if c.Method == "" {
		return fmt.Errorf("registry: codec %q missing Method", c.Name)
	}
	if c.Open == nil {
		return fmt.Errorf("registry: codec %q missing Open", c.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := codecs[c.Name]; exists {
		return fmt.Errorf("registry: codec %q already registered", c.Name)
	}
	for _, other := range codecs {
		if other.Method == c.Method {
			return fmt.Errorf("registry: codec %q reuses method %q of %q", c.Name, c.Method, other.Name)
		}
	}
	codecs[c.Name] = c
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(c Codec) {
	if err := Register(c); err != nil {
		panic(err)
	}
}

// List returns all registered codecs, sorted by name.
func List() []Codec {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Codec, 0, len(codecs))
	for _, c := range codecs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns registered codec names, sorted.
func Names() []string {
	cs := List()
	n := make([]string, 0, len(cs))
	for _, c := range cs {
		n = append(n, c.Name)
	}
	return n
}

// Lookup returns the named codec.
func Lookup(name string) (Codec, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := codecs[name]
	return c, ok
}

// ByMethod returns the codec registered under an RPC method suffix.
func ByMethod(method string) (Codec, bool) {
	mu.RLock()
	defer mu.RUnlock()
	for _, c := range codecs {
		if c.Method == method {
			return c, true
		}
	}
	return Codec{}, false
}

// Open opens the named codec with opts.
func Open(name string, opts Options) (TextCodec, error) {
	c, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCodec, name)
	}
	return c.Open(opts), nil
}
