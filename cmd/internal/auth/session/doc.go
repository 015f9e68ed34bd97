// Package session implements server-side session lifecycle.
//
// A client holds an opaque bearer token; the store holds only the derived
// identifier (see security/token). Sessions last TTL (7d by default). A
// validation inside the trailing renewal window (4d) slides the expiry to
// now+TTL. An expired session found on lookup is deleted and reported as
// autherr.ErrNoSession, the same outcome as an unknown token.
//
// Store failures surface as autherr.ErrStoreUnavailable. Nothing is retried.
//
// Sweeper is an optional maintenance loop that removes abandoned expired rows.
// It never runs on the validation path.
package session
