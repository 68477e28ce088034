package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestBuild_MatchesCheckedInVectors(t *testing.T) {
	want, err := os.ReadFile(filepath.Join("..", "..", "..", "testdata", "conformance", "xdao-codec-1", "vectors.tsv"))
	if err != nil {
		t.Fatalf("read vectors: %v", err)
	}
	got := conformanceBytes()
	if !bytes.Equal(got, want) {
		t.Fatalf("generated vectors differ from testdata; rerun vector_gen")
	}
}
