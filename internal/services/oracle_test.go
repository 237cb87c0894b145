package services

import "testing"

func TestParseRankedIDs(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
		wantErr  bool
	}{
		{
			name:     "bare JSON",
			content:  `{"ranked_ids": ["a", "b", "c"]}`,
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "fenced JSON",
			content:  "```json\n{\"ranked_ids\": [\"b\", \"a\"]}\n```",
			expected: []string{"b", "a"},
		},
		{
			name:     "JSON buried in prose",
			content:  "Sure! Here is the ranking:\n{\"ranked_ids\": [\"x\"]}\nLet me know if you need anything else.",
			expected: []string{"x"},
		},
		{
			name:     "empty list",
			content:  `{"ranked_ids": []}`,
			expected: []string{},
		},
		{
			name:    "no JSON object",
			content: "I cannot rank these tasks.",
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			content: `{"ranked_ids": ["a",}`,
			wantErr: true,
		},
		{
			name:    "missing ranked_ids key",
			content: `{"order": ["a", "b"]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := ParseRankedIDs(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got ids %v", ids)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(ids) != len(tt.expected) {
				t.Fatalf("Expected %d ids, got %d (%v)", len(tt.expected), len(ids), ids)
			}
			for i := range tt.expected {
				if ids[i] != tt.expected[i] {
					t.Errorf("Expected id %d to be %s, got %s", i, tt.expected[i], ids[i])
				}
			}
		})
	}
}
