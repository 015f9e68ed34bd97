// Package authapi exposes the session lifecycle over HTTP.
//
// The bearer token travels only in the "session" cookie; response bodies
// carry the session expiry but never the token itself.
package authapi
