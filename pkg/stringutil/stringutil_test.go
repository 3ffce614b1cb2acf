package stringutil

import (
	"testing"
)

func TestEllipsis(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		expected  string
	}{
		{
			name:      "No truncation needed",
			input:     "hello world",
			maxLength: 20,
			expected:  "hello world",
		},
		{
			name:      "Truncate with ellipsis",
			input:     "The quick brown fox jumps over the lazy dog",
			maxLength: 16,
			expected:  "The quick bro...",
		},
		{
			name:      "Truncate with maxLength less than or equal to 3",
			input:     "abcdefg",
			maxLength: 3,
			expected:  "abc",
		},
		{
			name:      "String with leading and trailing spaces",
			input:     "   padded string   ",
			maxLength: 10,
			expected:  "padded ...",
		},
		{
			name:      "String with newlines and carriage returns",
			input:     "foo\nbar\r\nbaz",
			maxLength: 10,
			expected:  "foo bar...",
		},
		{
			name:      "Empty string",
			input:     "",
			maxLength: 5,
			expected:  "",
		},
		{
			name:      "maxLength zero",
			input:     "something",
			maxLength: 0,
			expected:  "",
		},
		{
			name:      "maxLength negative",
			input:     "something",
			maxLength: -1,
			expected:  "",
		},
		{
			name:      "String exactly maxLength",
			input:     "12345",
			maxLength: 5,
			expected:  "12345",
		},
		{
			name:      "String with only spaces and newlines",
			input:     "   \n\r   ",
			maxLength: 2,
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Ellipsis(tt.input, tt.maxLength)
			if result != tt.expected {
				t.Errorf("Ellipsis(%q, %d) = %q; want %q",
					tt.input, tt.maxLength, result, tt.expected)
			}
		})
	}
}
func TestContainsFold(t *testing.T) {
	tests := []struct {
		s, sub string
		want   bool
	}{
		{"Maximum Segment Size: 1460", "maximum segment", true},
		{"MSS:1460,NOP", "mss", true},
		{"NOP,WScale:8", "wscale", true},
		{"NOP", "nope", false},
		{"", "a", false},
		{"anything", "", true},
	}
	for _, tt := range tests {
		if got := ContainsFold(tt.s, tt.sub); got != tt.want {
			t.Errorf("ContainsFold(%q, %q) = %v, want %v", tt.s, tt.sub, got, tt.want)
		}
	}
}

func TestContainsAnyFold(t *testing.T) {
	if !ContainsAnyFold("No-Operation (NOP)", "nop", "no-operation") {
		t.Fatal("expected match")
	}
	if ContainsAnyFold("MSS", "", "sack") {
		t.Fatal("empty needles must not match")
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Linux", "linux", true},
		{"Debian Linux", "Linux", true},
		{"Linux", "Debian Linux", true},
		{"Windows", "Linux", false},
		{"", "Linux", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := Overlaps(tt.a, tt.b); got != tt.want {
			t.Errorf("Overlaps(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
