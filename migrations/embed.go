// Package migrations holds the versioned SQL schema, embedded so the server
// and the migrate command can apply it without the files on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
