package compliance

import "fmt"

// Mode selects how aggressively decoders reject non-canonical input.
//
// Strict mode prefers explicit failure over silent acceptance: Base-N text
// with non-zero trailing bits and Punycode that does not re-encode to itself
// are rejected. Permissive mode accepts anything that decodes unambiguously.
type Mode int

const (
	Permissive Mode = iota
	Strict
)

func (m Mode) String() string {
	switch m {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the textual form used by flags and config files.
// The empty string selects Permissive.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return Permissive, fmt.Errorf("compliance: invalid mode %q", s)
	}
}
