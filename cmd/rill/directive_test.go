package main

import "testing"

func TestVersionDirective(t *testing.T) {
	cases := []struct {
		name   string
		source string
		ok     bool
	}{
		{"no directive", "def main():\n    return 1\n", true},
		{"plain comment", "# just a comment\n", true},
		{"satisfied", "# rill: >=0.1.0\ndef main():\n    return 1\n", true},
		{"satisfied range", "# rill: >=0.1.0, <1.0.0\n", true},
		{"unsatisfied", "# rill: >=2.0.0\n", false},
		{"empty constraint", "# rill:\n", false},
		{"garbage constraint", "# rill: not-a-version\n", false},
		{"directive not on first line", "x = 1\n# rill: >=2.0.0\n", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkVersionDirective(tc.source)
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected an error")
			}
		})
	}
}
