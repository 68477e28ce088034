package codecerr

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestError_MessageIncludesCodecAndOffset(t *testing.T) {
	err := At(KindInvalidCharacter, "base32", "B32-CHR-001", 7, "invalid symbol '!'")
	want := "base32: invalid symbol '!' at offset 7"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}

	err = New(KindInvalidArgument, "", "B64-ARG-001", "empty input")
	if err.Error() != "empty input" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestIsKind_ThroughWrapping(t *testing.T) {
	base := New(KindOverflow, "punycode", "PUNY-OVF-001", "weight overflow")
	wrapped := fmt.Errorf("decode label: %w", base)

	if !IsKind(wrapped, KindOverflow) {
		t.Fatalf("expected IsKind(KindOverflow) through fmt wrapping")
	}
	if IsKind(wrapped, KindInvalidEncoding) {
		t.Fatalf("unexpected kind match")
	}
	if got := RuleID(wrapped); got != "PUNY-OVF-001" {
		t.Fatalf("RuleID = %q", got)
	}
	if got := KindOf(wrapped); got != KindOverflow {
		t.Fatalf("KindOf = %q", got)
	}
}

func TestUnstructuredErrors(t *testing.T) {
	err := errors.New("plain")
	if IsKind(err, KindOverflow) {
		t.Fatalf("plain error must not match a kind")
	}
	if RuleID(err) != "" || KindOf(err) != "" {
		t.Fatalf("plain error must have no rule id or kind")
	}
}

func TestWrap_Unwrap(t *testing.T) {
	err := Wrap(KindInvalidArgument, "punycode", "PUNY-ARG-002", "invalid UTF-8", io.ErrUnexpectedEOF)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
	if e := Wrap(KindInvalidArgument, "x", "R", "m", nil); errors.Unwrap(e) != nil {
		t.Fatalf("nil cause must not be wrapped")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, ok := ParseKind(string(k))
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %q, %v", k, got, ok)
		}
	}
	if _, ok := ParseKind("Nope"); ok {
		t.Fatalf("unknown kind must not parse")
	}
}
