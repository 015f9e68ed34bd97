package token

import (
	"regexp"
	"testing"
)

var (
	tokenRe = regexp.MustCompile(`^[a-z2-7]{32}$`)
	idRe    = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

func TestGenerate_Format(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(tok) != EncodedLen || !tokenRe.MatchString(tok) {
			t.Fatalf("unexpected token format: %q", tok)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestGenerateN_RejectsLowEntropy(t *testing.T) {
	t.Parallel()

	if _, err := GenerateN(RandomBytes - 1); err != ErrTooShort {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	tok, err := GenerateN(32)
	if err != nil {
		t.Fatalf("GenerateN: %v", err)
	}
	if len(tok) != 52 {
		t.Fatalf("len=%d want 52", len(tok))
	}
}

func TestDeriveID_Vectors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{in: "abc", want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, tc := range cases {
		if got := DeriveID(tc.in); got != tc.want {
			t.Fatalf("DeriveID(%q)=%s want %s", tc.in, got, tc.want)
		}
	}
}

func TestDeriveID_DeterministicAndDistinct(t *testing.T) {
	t.Parallel()

	t1, _ := Generate()
	t2, _ := Generate()

	a := DeriveID(t1)
	if a != DeriveID(t1) {
		t.Fatalf("DeriveID not deterministic")
	}
	if !idRe.MatchString(a) {
		t.Fatalf("unexpected identifier format: %q", a)
	}
	if a == DeriveID(t2) {
		t.Fatalf("distinct tokens produced the same identifier")
	}
}

func TestCodec_KeyedMode(t *testing.T) {
	t.Parallel()

	plain := NewCodec(nil)
	keyed := NewCodec([]byte("0123456789abcdef0123456789abcdef"))

	if plain.Keyed() || !keyed.Keyed() {
		t.Fatalf("Keyed() mismatch")
	}
	tok := "aaaabbbbccccddddeeeeffffgggghhhh"
	if plain.DeriveID(tok) != DeriveID(tok) {
		t.Fatalf("plain codec must match DeriveID")
	}
	k := keyed.DeriveID(tok)
	if k == DeriveID(tok) || !idRe.MatchString(k) {
		t.Fatalf("keyed identifier unexpected: %q", k)
	}
}

func TestCodecFromEnv(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	c, err := CodecFromEnv(false, 32)
	if err != nil || c.Keyed() {
		t.Fatalf("optional missing key: codec=%v err=%v", c, err)
	}
	if _, err := CodecFromEnv(true, 32); err != ErrHMACKeyMissing {
		t.Fatalf("expected ErrHMACKeyMissing, got %v", err)
	}

	t.Setenv(HMACEnvKey, "short")
	if _, err := CodecFromEnv(false, 32); err != ErrHMACKeyTooShort {
		t.Fatalf("expected ErrHMACKeyTooShort, got %v", err)
	}

	t.Setenv(HMACEnvKey, "0123456789abcdef0123456789abcdef")
	c, err = CodecFromEnv(true, 32)
	if err != nil || !c.Keyed() {
		t.Fatalf("required key: keyed=%v err=%v", c.Keyed(), err)
	}
}

func TestEqualID(t *testing.T) {
	t.Parallel()

	a := DeriveID("x")
	if !EqualID(a, DeriveID("x")) {
		t.Fatalf("expected equal")
	}
	if EqualID(a, DeriveID("y")) {
		t.Fatalf("expected not equal")
	}
	if EqualID("abc", "abc") {
		t.Fatalf("short inputs must never match")
	}
}
