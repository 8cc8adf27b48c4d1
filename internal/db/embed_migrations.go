package db

import "embed"

// MigrationFS holds the schema applied by Migrate and cmd/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
