package testutil

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	errs "github.com/dshills/quantaplan/internal/errors"
)

// AssertEqual checks if two values are equal and prints a diff otherwise.
func AssertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// AssertNoError checks that error is nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError checks that error is not nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorCode checks that err carries the given SQLSTATE code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if got := errs.Code(err); got != code {
		t.Fatalf("expected code %s, got %q (%v)", code, got, err)
	}
}

// AssertLines compares two multi-line texts line by line, ignoring a
// trailing newline and leading indentation of the expected text.
func AssertLines(t *testing.T, expected, actual string) {
	t.Helper()
	if diff := cmp.Diff(Lines(expected), Lines(actual)); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}

// Lines splits text into lines with surrounding whitespace removed and
// blank lines dropped.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// AssertTrue checks that condition is true
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Error(msg)
	}
}

// AssertFalse checks that condition is false
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Error(msg)
	}
}
