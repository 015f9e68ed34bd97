package password

// Hasher is the password collaborator handed to the auth layer.
// It keeps a precomputed hash so lookups for unknown accounts cost the same
// as a real verification.
type Hasher struct {
	cfg   Config
	dummy string
}

// NewHasher builds a Hasher and precomputes its dummy hash.
func NewHasher(cfg Config) (*Hasher, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	probe := cfg
	probe.Policy = Policy{MinLength: 1, MaxLength: 4096}
	dummy, err := probe.Hash("dummy-password-for-timing-only")
	if err != nil {
		return nil, err
	}
	return &Hasher{cfg: cfg, dummy: dummy}, nil
}

// Validate checks password policy.
func (h *Hasher) Validate(password string) error { return h.cfg.Validate(password) }

// ValidateFor checks password policy against the account email as well.
func (h *Hasher) ValidateFor(email, password string) error { return h.cfg.ValidateFor(email, password) }

// Hash validates and hashes password.
func (h *Hasher) Hash(password string) (string, error) { return h.cfg.Hash(password) }

// Verify reports whether password matches encoded. Errors count as mismatch.
func (h *Hasher) Verify(encoded, password string) bool {
	ok, err := h.cfg.Verify(encoded, password)
	return err == nil && ok
}

// VerifyDummy burns one verification against the dummy hash.
func (h *Hasher) VerifyDummy(password string) {
	_, _ = h.cfg.Verify(h.dummy, password)
}
