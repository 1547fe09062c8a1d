// internal/dialogue/extract_test.go
package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Ticket ID Extraction Tests
// ==========================

func TestExtractTicketIDs(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "single incident id",
			text:     "what's the status of INC0010001?",
			expected: []string{"INC0010001"},
		},
		{
			name:     "mixed case and two prefixes",
			text:     "check INC0010001 and req99999",
			expected: []string{"INC0010001", "req99999"},
		},
		{
			name:     "five digits is the boundary",
			text:     "REQ12345",
			expected: []string{"REQ12345"},
		},
		{
			name:     "four digits rejected",
			text:     "REQ9999 is not a valid record number",
			expected: nil,
		},
		{
			name:     "all record prefixes",
			text:     "TASK00001 then RITM123456 then INC99999",
			expected: []string{"TASK00001", "RITM123456", "INC99999"},
		},
		{
			name:     "first-seen order preserved with repeats",
			text:     "INC11111 REQ22222 INC11111",
			expected: []string{"INC11111", "REQ22222", "INC11111"},
		},
		{
			name:     "prefix embedded in a word rejected",
			text:     "reINC12345 is not a ticket",
			expected: nil,
		},
		{
			name:     "no ids at all",
			text:     "my laptop is broken",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractTicketIDs(tt.text))
		})
	}
}

// ==========================
// Affirmative Detection Tests
// ==========================

func TestIsAffirmative(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"plain yes", "yes", true},
		{"yes with punctuation", "Yes, please!", true},
		{"single letter y", "y", true},
		{"okay variant", "okay go ahead", true},
		{"confirm keyword", "confirm", true},
		{"chinese shi", "是的", true},
		{"chinese queren inside sentence", "我确认这个请求", true},
		{"plain no", "no", false},
		{"cancel", "cancel it", false},
		{"y inside a word does not fire", "today maybe not", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAffirmative(tt.text))
		})
	}
}
