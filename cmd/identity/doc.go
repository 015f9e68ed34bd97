// Package identity owns user records: accounts, credentials, and the
// email-verification fields the verification manager reads and clears.
//
// Stores:
// - PostgresStore: pgx-backed, schema-qualified identifiers, constraint names
//   mapped to ConflictError fields.
// - MemoryStore: process-local, used when no database is configured and in tests.
//
// Password hashing is not done here; callers pass an already encoded hash.
package identity
