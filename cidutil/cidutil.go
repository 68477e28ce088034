// Package cidutil pins artifacts (vector files, generated fixtures) by content.
package cidutil

import (
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	c, err := CIDv1RawSHA256CID(data)
	if err != nil {
		// Unreachable for SHA2_256 with default length.
		return ""
	}
	return c.String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Check reports whether data hashes to the pinned CID want. Surrounding
// whitespace in want is ignored, so the contents of a .cid file can be
// passed directly. Any CID version or multibase accepted by go-cid may be
// pinned; only the multihash digest is compared.
func Check(data []byte, want string) error {
	want = strings.TrimSpace(want)
	if want == "" {
		return fmt.Errorf("cidutil: empty expected CID")
	}
	pinned, err := cid.Decode(want)
	if err != nil {
		return fmt.Errorf("cidutil: parse %q: %w", want, err)
	}
	dh, err := multihash.Decode(pinned.Hash())
	if err != nil {
		return fmt.Errorf("cidutil: %w", err)
	}
	sum, err := multihash.Sum(data, dh.Code, dh.Length)
	if err != nil {
		return fmt.Errorf("cidutil: %w", err)
	}
	if string(sum) != string(pinned.Hash()) {
		return fmt.Errorf("cidutil: CID mismatch: got %s want %s", cid.NewCidV1(pinned.Type(), sum), want)
	}
	return nil
}
