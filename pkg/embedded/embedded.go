// Package embedded provides the static assets compiled into lcdash:
//   - catalog/catalog.yaml - default reference catalog for the filter sidebar
//   - seed/lending_club_sample.csv - sample rows for the local SQLite warehouse
//   - schema/lending_club.sql - table definition for the local SQLite warehouse
package embedded

import (
	"embed"
)

// Files contains all embedded assets.
//
//go:embed catalog seed schema
var Files embed.FS

// CatalogPath is the location of the default catalog inside Files.
const CatalogPath = "catalog/catalog.yaml"

// SeedPath is the location of the sample loan rows inside Files.
const SeedPath = "seed/lending_club_sample.csv"

// SchemaPath is the location of the local warehouse schema inside Files.
const SchemaPath = "schema/lending_club.sql"
