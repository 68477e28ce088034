// Package codecerr defines the structured error taxonomy shared by every codec
// in this module.
package codecerr

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	// KindInvalidArgument reports input that is not a defined special case,
	// such as empty text handed to a Base-N decoder.
	KindInvalidArgument Kind = "InvalidArgument"
	// KindInvalidLength reports encoded text whose length is not a multiple
	// of the codec's group size.
	KindInvalidLength Kind = "InvalidLength"
	// KindInvalidCharacter reports a symbol outside the codec's alphabet.
	KindInvalidCharacter Kind = "InvalidCharacter"
	// KindInvalidEncoding reports a malformed Bootstring sequence.
	KindInvalidEncoding Kind = "InvalidEncoding"
	// KindOverflow reports integer overflow while processing Bootstring input.
	KindOverflow Kind = "Overflow"
	// KindInputTooLarge reports input rejected by a configured size cap.
	KindInputTooLarge Kind = "InputTooLarge"
)

// Kinds lists every Kind in a stable order.
var Kinds = []Kind{
	KindInvalidArgument,
	KindInvalidLength,
	KindInvalidCharacter,
	KindInvalidEncoding,
	KindOverflow,
	KindInputTooLarge,
}

// ParseKind maps a Kind string back to a Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g., B32-LEN-001, PUNY-OVF-002) that names
// the violated rule. Offset is the byte offset into the input where the
// violation was detected, or -1 when the failure is not positional.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Codec   string
	Offset  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Codec == "" {
		return msg
	}
	return e.Codec + ": " + msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns a non-positional structured error.
func New(kind Kind, codec, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Codec: codec, Offset: -1, Message: msg}
}

// At returns a structured error pinned to an input offset.
func At(kind Kind, codec, ruleID string, offset int, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Codec: codec, Offset: offset, Message: msg}
}

// Wrap returns a structured error carrying cause.
func Wrap(kind Kind, codec, ruleID, msg string, cause error) error {
	if cause == nil {
		return New(kind, codec, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Codec: codec, Offset: -1, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
