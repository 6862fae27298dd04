package warehouse

import (
	"context"
	"database/sql"

	dbsql "github.com/databricks/databricks-sql-go"
	"github.com/rs/zerolog"

	"github.com/aristath/lcdash/internal/clients/databricks"
	"github.com/aristath/lcdash/internal/config"
	"github.com/aristath/lcdash/internal/modules/query"
)

// NewDatabricks builds the Databricks SQL warehouse connector.
func NewDatabricks(cfg config.DatabricksConfig, tokens TokenSource, log zerolog.Logger) (Connector, error) {
	dialect := query.Databricks.WithTable(cfg.Table)
	if cfg.Host == "" {
		return nil, configError(config.BackendDatabricks, "DATABRICKS_HOST is not set")
	}
	if cfg.HTTPPath == "" {
		return nil, configError(config.BackendDatabricks, "DATABRICKS_HTTP_PATH is not set")
	}

	users := databricks.NewClient(cfg.Host, log)

	return &sqlConnector{
		backend: config.BackendDatabricks,
		dialect: dialect,
		open: func(ctx context.Context, session Session) (queryer, error) {
			token, err := tokens.Token(ctx, session)
			if err != nil {
				return nil, err
			}
			connector, err := dbsql.NewConnector(
				dbsql.WithServerHostname(cfg.Host),
				dbsql.WithPort(443),
				dbsql.WithHTTPPath(cfg.HTTPPath),
				dbsql.WithAccessToken(token),
			)
			if err != nil {
				return nil, err
			}
			return sql.OpenDB(connector), nil
		},
		identity: func(ctx context.Context, session Session) (string, error) {
			token, err := tokens.Token(ctx, session)
			if err != nil {
				return "", err
			}
			user, err := users.CurrentUser(ctx, token)
			if err != nil {
				return "", err
			}
			return user.Name(), nil
		},
		log: log.With().Str("component", "warehouse").Str("backend", config.BackendDatabricks).Logger(),
	}, nil
}
