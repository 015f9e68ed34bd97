// Package mail is the outbound mail collaborator.
//
// Senders are constructed explicitly and injected; there is no package-level
// client. Providers:
//   - "postmark": Postmark transactional API (github.com/mrz1836/postmark)
//   - "log": writes a structured log line per message, for local development
//   - "noop": drops messages
package mail
