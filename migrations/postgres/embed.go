// Package migrations embebe los archivos SQL del esquema de Postgres.
package migrations

import "embed"

// FS contiene las migraciones, nombradas NNNN_nombre_{up,down}.sql y
// aplicadas en orden ascendente.
//
//go:embed *.sql
var FS embed.FS
