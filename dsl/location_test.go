package dsl

import (
	"testing"

	"github.com/goliatone/go-crm-connect/core"
)

func TestSplitLocation(t *testing.T) {
	bucket, key, err := SplitLocation("bucket/a/b")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if bucket != "bucket" || key != "a/b" {
		t.Fatalf("expected (bucket, a/b), got (%q, %q)", bucket, key)
	}

	bucket, key, err = SplitLocation("bucket/")
	if err != nil || bucket != "bucket" || key != "" {
		t.Fatalf("expected empty key, got (%q, %q, %v)", bucket, key, err)
	}
}

func TestSplitLocation_Malformed(t *testing.T) {
	_, _, err := SplitLocation("nobucket")
	if core.KindOf(err) != core.ErrorMalformedLocation {
		t.Fatalf("expected malformed location, got %v", err)
	}
}
