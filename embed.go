package primeminister

import "embed"

//go:embed migrations/*.sql
var MigrationsFS embed.FS

// DefaultCouncil is written to the user config directory on first run.
//
//go:embed default_council.yaml
var DefaultCouncil []byte
