package warehouse

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/rs/zerolog"

	"github.com/aristath/lcdash/internal/config"
	"github.com/aristath/lcdash/internal/modules/query"
)

// NewPostgres builds a connector for a Postgres copy of the loan table.
func NewPostgres(databaseURL string, log zerolog.Logger) (Connector, error) {
	if databaseURL == "" {
		return nil, configError(config.BackendPostgres, "DATABASE_URL is not set")
	}

	return &sqlConnector{
		backend: config.BackendPostgres,
		dialect: query.Postgres,
		open: func(ctx context.Context, session Session) (queryer, error) {
			return sql.Open("pgx", databaseURL)
		},
		log: log.With().Str("component", "warehouse").Str("backend", config.BackendPostgres).Logger(),
	}, nil
}
