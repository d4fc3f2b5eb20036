package core

import (
	"testing"
	"time"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestParsePostID(t *testing.T) {
	tests := []struct {
		input    string
		expected PostID
		hasError bool
	}{
		{"fui7gp", PostID("fui7gp"), false},
		{"  fui7gp ", PostID("fui7gp"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParsePostID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestParseRunID(t *testing.T) {
	if _, err := ParseRunID(""); err == nil {
		t.Error("Expected error for empty run ID")
	}
	id := NewRunID()
	parsed, err := ParseRunID(id.String())
	if err != nil || parsed != id {
		t.Errorf("Expected %s, got %s (%v)", id, parsed, err)
	}
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2020-01-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := FormatDate(d); got != "2020-01-10" {
		t.Errorf("Expected 2020-01-10, got %s", got)
	}
	if _, err := ParseDate("2020/01/10"); err == nil {
		t.Error("Expected error for malformed date")
	}
	if got := FromUnix(1577836800); !got.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected unix conversion: %s", got)
	}
}
