package core

import (
	"testing"
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

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestNewRunIDOrdering tests that v7 run IDs sort by creation order
func TestNewRunIDOrdering(t *testing.T) {
	first := NewRunID()
	second := NewRunID()
	if first.String() >= second.String() {
		t.Errorf("Expected %s to sort before %s", first, second)
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"run-123", RunID("run-123"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
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

// TestParseFigureID tests figure ID parsing
func TestParseFigureID(t *testing.T) {
	tests := []struct {
		input    string
		hasError bool
	}{
		{"urban-growth-bar", false},
		{"", true},
		{"../escape", true},
		{`dir\fig`, true},
	}

	for _, test := range tests {
		_, err := ParseFigureID(test.input)
		if test.hasError != (err != nil) {
			t.Errorf("ParseFigureID(%q) error = %v, want error %v", test.input, err, test.hasError)
		}
	}
}
