// Package migrations embeds SQL migration files into the binary.
//
// This allows GateWise to run migrations without the SQL files present on
// the device filesystem - they're compiled into the executable.
package migrations

import (
	"embed"

	"github.com/gatewise/gatewise-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
