package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/lcdash/internal/clients/connect"
	"github.com/aristath/lcdash/internal/config"
	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/internal/modules/query"
)

// New selects the connector for cfg.Backend. Incomplete settings do not
// fail: the returned connector reports them on every request. Any other
// error is fatal.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Connector, error) {
	conn, err := build(ctx, cfg, log)
	if err == nil {
		return conn, nil
	}

	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		return nil, err
	}

	dialect, dErr := query.DialectByName(cfg.Backend)
	if dErr != nil {
		return nil, dErr
	}
	log.Warn().Err(err).Str("backend", cfg.Backend).Msg("Warehouse settings incomplete")
	return &Unavailable{Name: cfg.Backend, Dial: dialect, Cause: err}, nil
}

func build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Connector, error) {
	switch cfg.Backend {
	case config.BackendDatabricks:
		tokens, err := tokenSource(cfg, config.BackendDatabricks,
			StaticToken{Backend: config.BackendDatabricks, Value: cfg.Databricks.Token, EnvVar: "DATABRICKS_TOKEN"}, log)
		if err != nil {
			return nil, err
		}
		return NewDatabricks(cfg.Databricks, tokens, log)

	case config.BackendSnowflake:
		var exchange TokenSource
		if cfg.Managed {
			var err error
			exchange, err = tokenSource(cfg, config.BackendSnowflake, nil, log)
			if err != nil {
				return nil, err
			}
		}
		return NewSnowflake(SnowflakeCredentials(cfg.Snowflake, cfg.Managed, exchange), log), nil

	case config.BackendPostgres:
		return NewPostgres(cfg.DatabaseURL, log)

	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.WarehousePath(), log)

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// tokenSource returns the per-viewer exchange on a managed host and
// fallback otherwise.
func tokenSource(cfg *config.Config, backend string, fallback TokenSource, log zerolog.Logger) (TokenSource, error) {
	if !cfg.Managed {
		return fallback, nil
	}
	if cfg.Connect.Server == "" || cfg.Connect.APIKey == "" {
		return nil, configError(backend, "CONNECT_SERVER and CONNECT_API_KEY must be set on a Connect host")
	}
	return SessionExchange{
		Backend:   backend,
		Exchanger: connect.NewClient(cfg.Connect.Server, cfg.Connect.APIKey, log),
	}, nil
}
