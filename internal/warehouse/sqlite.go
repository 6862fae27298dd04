package warehouse

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/lcdash/internal/config"
	"github.com/aristath/lcdash/internal/database"
	"github.com/aristath/lcdash/internal/modules/query"
)

// SQLite is the local demo warehouse connector. It owns its database.
type SQLite struct {
	*sqlConnector
	db *database.DB
}

// NewSQLite wraps an open demo warehouse. Each query checks out a dedicated
// connection from the pool and returns it afterwards.
func NewSQLite(db *database.DB, log zerolog.Logger) *SQLite {
	return &SQLite{
		sqlConnector: &sqlConnector{
			backend: config.BackendSQLite,
			dialect: query.SQLite,
			open: func(ctx context.Context, session Session) (queryer, error) {
				return db.Conn().Conn(ctx)
			},
			log: log.With().Str("component", "warehouse").Str("backend", config.BackendSQLite).Logger(),
		},
		db: db,
	}
}

// OpenSQLite opens the demo warehouse at path, applies its schema and loads
// the embedded sample on first start.
func OpenSQLite(ctx context.Context, path string, log zerolog.Logger) (*SQLite, error) {
	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileWarehouse,
		Name:    "warehouse",
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	seeded, err := db.SeedIfEmpty(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if seeded > 0 {
		log.Info().Int("rows", seeded).Str("path", db.Path()).Msg("Seeded demo warehouse")
	}
	return NewSQLite(db, log), nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping checks that the demo warehouse is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.QuickCheck(ctx)
}
