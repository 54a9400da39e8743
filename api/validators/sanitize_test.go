package validators

import "testing"

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"trims", "  A-101  ", 0, "A-101"},
		{"collapses inner whitespace", "Plaza \t\n Central", 0, "Plaza Central"},
		{"drops control characters", "Pla\x00za", 0, "Plaza"},
		{"cuts on runes", "Peñón Norte", 4, "Peñó"},
		{"no trailing space after cut", "ab cd", 3, "ab"},
		{"empty", "   ", 10, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeString(tc.input, tc.max); got != tc.want {
				t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.input, tc.max, got, tc.want)
			}
		})
	}
}
