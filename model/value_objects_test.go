package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestNormalizeText tests the NormalizeText function
func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
		description string
	}{
		{
			name:        "Plain value",
			input:       "Site",
			expected:    "Site",
			description: "通常の文字列はそのまま返ること",
		},
		{
			name:        "Surrounding whitespace",
			input:       "  Site \t",
			expected:    "Site",
			description: "前後の空白が除去されること",
		},
		{
			name:        "Empty string",
			input:       "",
			expectError: true,
			description: "空文字列はエラーになること",
		},
		{
			name:        "Whitespace only",
			input:       "   \n ",
			expectError: true,
			description: "空白のみの文字列は空として扱われること",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeText("name", tt.input)
			if tt.expectError {
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) {
					t.Errorf("%s: expected ValidationError, got %v", tt.description, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.description, err)
			}
			if got != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.description, tt.expected, got)
			}
		})
	}
}

// TestParseID tests the ParseID function
func TestParseID(t *testing.T) {
	id := NewID()

	parsed, err := ParseID(id.String())
	if err != nil {
		t.Fatalf("Failed to parse id: %v", err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	if _, err := ParseID(""); err == nil {
		t.Error("Expected error for empty id, got nil")
	}
	if _, err := ParseID("not-a-uuid"); err == nil {
		t.Error("Expected error for invalid id, got nil")
	}
}

// TestNewIDIsTimeOrdered tests that generated ids sort in creation order
func TestNewIDIsTimeOrdered(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		next := NewID()
		if next.String() <= prev.String() {
			t.Fatalf("Expected %s to sort after %s", next, prev)
		}
		if next.Version() != 7 {
			t.Fatalf("Expected UUID version 7, got %d", next.Version())
		}
		prev = next
	}
	if prev == uuid.Nil {
		t.Fatal("Expected non-nil UUID")
	}
}

// TestTimestamp tests the Timestamp normalization
func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	in := time.Date(2025, 5, 21, 14, 30, 0, 123456789, loc)

	got := Timestamp(in)
	if got.Location() != time.UTC {
		t.Errorf("Expected UTC location, got %v", got.Location())
	}
	if got.Nanosecond() != 123456000 {
		t.Errorf("Expected microsecond precision, got %d ns", got.Nanosecond())
	}
	if !got.Equal(in.Truncate(time.Microsecond)) {
		t.Errorf("Expected same instant, got %v", got)
	}
}
