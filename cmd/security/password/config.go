package password

import (
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32 `env:"AUTHD_ARGON2_MEMORY_KIB"`
	Iterations  uint32 `env:"AUTHD_ARGON2_ITERATIONS"`
	Parallelism uint8  `env:"AUTHD_ARGON2_PARALLELISM"`
	SaltLength  uint32 `env:"AUTHD_ARGON2_SALT_LEN"`
	KeyLength   uint32 `env:"AUTHD_ARGON2_KEY_LEN"`
}

// Policy controls password validation and anti-DoS boundaries.
type Policy struct {
	MinLength int `env:"AUTHD_PASSWORD_MIN_LEN"`
	MaxLength int `env:"AUTHD_PASSWORD_MAX_LEN"`
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool `env:"AUTHD_PASSWORD_REJECT_VERY_WEAK"`
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns the baseline cost and policy.
func DefaultConfig() Config {
	// Parallelism follows the CPU count, clamped to [1..4] for containers.
	threads := min(max(runtime.NumCPU(), 1), 4)

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      12,
			MaxLength:      256,
			RejectVeryWeak: false,
		},
	}
}

// FromEnv overlays environment variables on DefaultConfig.
//
// Env surface:
// - AUTHD_PASSWORD_MIN_LEN, AUTHD_PASSWORD_MAX_LEN, AUTHD_PASSWORD_REJECT_VERY_WEAK
// - AUTHD_ARGON2_MEMORY_KIB, AUTHD_ARGON2_ITERATIONS, AUTHD_ARGON2_PARALLELISM
// - AUTHD_ARGON2_SALT_LEN, AUTHD_ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("password config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) check() error {
	checks := []struct {
		name     string
		v, lo, hi uint64
	}{
		{"AUTHD_PASSWORD_MIN_LEN", uint64(max(c.Policy.MinLength, 0)), 1, 1024},
		{"AUTHD_PASSWORD_MAX_LEN", uint64(max(c.Policy.MaxLength, 0)), 1, 4096},
		{"AUTHD_ARGON2_MEMORY_KIB", uint64(c.Params.MemoryKiB), 8 * 1024, 1024 * 1024},
		{"AUTHD_ARGON2_ITERATIONS", uint64(c.Params.Iterations), 1, 20},
		{"AUTHD_ARGON2_PARALLELISM", uint64(c.Params.Parallelism), 1, 64},
		{"AUTHD_ARGON2_SALT_LEN", uint64(c.Params.SaltLength), 8, 64},
		{"AUTHD_ARGON2_KEY_LEN", uint64(c.Params.KeyLength), 16, 64},
	}
	for _, ck := range checks {
		if ck.v < ck.lo || ck.v > ck.hi {
			return fmt.Errorf("%s: out of range [%d..%d]", ck.name, ck.lo, ck.hi)
		}
	}
	if c.Policy.MinLength > c.Policy.MaxLength {
		return fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			c.Policy.MinLength,
			c.Policy.MaxLength,
		)
	}
	return nil
}
