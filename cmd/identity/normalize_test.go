package identity

import "testing"

func TestNormalizeAndValidEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in    string
		norm  string
		valid bool
	}{
		{in: "  Ada@Example.COM ", norm: "ada@example.com", valid: true},
		{in: "first.last+tag@sub.example.org", norm: "first.last+tag@sub.example.org", valid: true},
		{in: "no-at-sign", norm: "no-at-sign", valid: false},
		{in: "a@b", norm: "a@b", valid: false},
		{in: "", norm: "", valid: false},
	}
	for _, tc := range cases {
		if got := NormalizeEmail(tc.in); got != tc.norm {
			t.Fatalf("NormalizeEmail(%q)=%q want %q", tc.in, got, tc.norm)
		}
		if got := ValidEmail(tc.in); got != tc.valid {
			t.Fatalf("ValidEmail(%q)=%v want %v", tc.in, got, tc.valid)
		}
	}
}
