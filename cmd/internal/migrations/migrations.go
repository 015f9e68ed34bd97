// Package migrations embeds the goose SQL migrations for the authd schema.
package migrations

import "embed"

// FS holds the *.sql migrations at its root.
//
//go:embed *.sql
var FS embed.FS

// Schema is the schema the migrations create.
const Schema = "authd"
