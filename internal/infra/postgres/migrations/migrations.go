package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered set of schema changes; each file registers one step.
var Migrations = migrate.NewMigrations()
