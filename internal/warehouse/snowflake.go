package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/snowflakedb/gosnowflake"

	"github.com/aristath/lcdash/internal/config"
	"github.com/aristath/lcdash/internal/modules/query"
)

// ConnectionProfile is one named entry of a Snowflake connections.toml.
type ConnectionProfile struct {
	Account       string `toml:"account"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	Role          string `toml:"role"`
	Warehouse     string `toml:"warehouse"`
	Database      string `toml:"database"`
	Schema        string `toml:"schema"`
	Authenticator string `toml:"authenticator"`
	Token         string `toml:"token"`
	TokenFilePath string `toml:"token_file_path"`
}

// LoadConnectionProfile reads the named connection from
// home/connections.toml.
func LoadConnectionProfile(home, name string) (*ConnectionProfile, error) {
	path := filepath.Join(home, "connections.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError(config.BackendSnowflake, "cannot read %s: %v", path, err)
	}

	var profiles map[string]ConnectionProfile
	if err := toml.Unmarshal(data, &profiles); err != nil {
		return nil, configError(config.BackendSnowflake, "cannot parse %s: %v", path, err)
	}

	p, ok := profiles[name]
	if !ok {
		return nil, configError(config.BackendSnowflake, "connection %q not found in %s", name, path)
	}
	return &p, nil
}

// driverConfig turns a profile into driver settings. Session placement
// (warehouse, database, schema) always comes from cfg.
func (p *ConnectionProfile) driverConfig(cfg config.SnowflakeConfig) (*gosnowflake.Config, error) {
	sf := &gosnowflake.Config{
		Account:   p.Account,
		User:      p.User,
		Password:  p.Password,
		Role:      p.Role,
		Warehouse: cfg.Warehouse,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
	}
	if sf.Account == "" {
		sf.Account = cfg.Account
	}

	switch strings.ToLower(p.Authenticator) {
	case "", "snowflake":
		sf.Authenticator = gosnowflake.AuthTypeSnowflake
	case "oauth":
		token := p.Token
		if token == "" && p.TokenFilePath != "" {
			raw, err := os.ReadFile(p.TokenFilePath)
			if err != nil {
				return nil, configError(config.BackendSnowflake, "cannot read token file: %v", err)
			}
			token = strings.TrimSpace(string(raw))
		}
		if token == "" {
			return nil, configError(config.BackendSnowflake, "oauth connection has no token")
		}
		sf.Authenticator = gosnowflake.AuthTypeOAuth
		sf.Token = token
	default:
		return nil, configError(config.BackendSnowflake, "unsupported authenticator %q", p.Authenticator)
	}
	return sf, nil
}

// snowflakeCredentials resolves driver settings for one request.
type snowflakeCredentials func(ctx context.Context, session Session) (*gosnowflake.Config, error)

// SnowflakeCredentials picks the credential strategy: a local named
// connection when SNOWFLAKE_HOME is set off-platform, the viewer's OAuth
// token on a managed host, otherwise an error on every request.
func SnowflakeCredentials(cfg config.SnowflakeConfig, managed bool, exchange TokenSource) snowflakeCredentials {
	switch {
	case !managed && cfg.Home != "":
		return func(ctx context.Context, session Session) (*gosnowflake.Config, error) {
			profile, err := LoadConnectionProfile(cfg.Home, cfg.ConnectionName)
			if err != nil {
				return nil, err
			}
			return profile.driverConfig(cfg)
		}
	case managed:
		return func(ctx context.Context, session Session) (*gosnowflake.Config, error) {
			if cfg.Account == "" {
				return nil, configError(config.BackendSnowflake, "SNOWFLAKE_ACCOUNT is not set")
			}
			token, err := exchange.Token(ctx, session)
			if err != nil {
				return nil, err
			}
			return &gosnowflake.Config{
				Account:       cfg.Account,
				Warehouse:     cfg.Warehouse,
				Database:      cfg.Database,
				Schema:        cfg.Schema,
				Authenticator: gosnowflake.AuthTypeOAuth,
				Token:         token,
			}, nil
		}
	default:
		return func(ctx context.Context, session Session) (*gosnowflake.Config, error) {
			return nil, configError(config.BackendSnowflake, "No Snowflake credentials found")
		}
	}
}

// NewSnowflake builds the Snowflake connector.
func NewSnowflake(creds snowflakeCredentials, log zerolog.Logger) Connector {
	return &sqlConnector{
		backend: config.BackendSnowflake,
		dialect: query.Snowflake,
		open: func(ctx context.Context, session Session) (queryer, error) {
			sf, err := creds(ctx, session)
			if err != nil {
				return nil, err
			}
			dsn, err := gosnowflake.DSN(sf)
			if err != nil {
				return nil, fmt.Errorf("invalid snowflake settings: %w", err)
			}
			return sql.Open("snowflake", dsn)
		},
		log: log.With().Str("component", "warehouse").Str("backend", config.BackendSnowflake).Logger(),
	}
}
