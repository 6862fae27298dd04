// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/aristath/lcdash/internal/utils"
)

// Warehouse backends.
const (
	BackendDatabricks = "databricks"
	BackendSnowflake  = "snowflake"
	BackendPostgres   = "postgres"
	BackendSQLite     = "sqlite"
)

// DefaultSessionTokenHeader carries the viewer's session token on a Connect host.
const DefaultSessionTokenHeader = "Posit-Connect-User-Session-Token"

// Config holds application configuration
type Config struct {
	Backend            string
	DataDir            string // Base directory for local files (always absolute)
	Port               int
	LogLevel           string
	DevMode            bool
	RowLimit           int
	SessionTokenHeader string
	ChartTextColor     string
	// AllowedOrigins lists cross-site origins (scheme://host[:port]) that may
	// call the API and open the websocket. Empty means same-origin only.
	AllowedOrigins []string
	// Managed is true when running on a Posit Connect host (RSTUDIO_PRODUCT=CONNECT)
	Managed    bool
	Connect    ConnectConfig
	Databricks DatabricksConfig
	Snowflake  SnowflakeConfig
	// DatabaseURL is the Postgres connection string
	DatabaseURL string
	Catalog     CatalogConfig
}

// ConnectConfig locates the Posit Connect server used for token exchange.
type ConnectConfig struct {
	Server string
	APIKey string
}

// DatabricksConfig holds Databricks SQL warehouse settings
type DatabricksConfig struct {
	Host     string
	HTTPPath string
	Token    string
	Table    string // Optional fully-qualified table override
}

// SnowflakeConfig holds Snowflake settings
type SnowflakeConfig struct {
	Account        string
	Home           string // Directory holding connections.toml
	ConnectionName string
	Warehouse      string
	Database       string
	Schema         string
}

// CatalogConfig locates the reference catalog. Empty means the embedded one.
type CatalogConfig struct {
	Path              string
	S3URI             string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("LCDASH_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		Backend:            strings.ToLower(getEnv("LCDASH_BACKEND", BackendSQLite)),
		DataDir:            absDataDir,
		Port:               getEnvAsInt("LCDASH_PORT", 8080),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		RowLimit:           getEnvAsInt("LCDASH_ROW_LIMIT", 1000),
		SessionTokenHeader: getEnv("SESSION_TOKEN_HEADER", DefaultSessionTokenHeader),
		ChartTextColor:     getEnv("CHART_TEXT_COLOR", "#FFFFFF"),
		AllowedOrigins:     utils.ParseCSV(getEnv("LCDASH_ALLOWED_ORIGINS", "")),
		Managed:            getEnv("RSTUDIO_PRODUCT", "") == "CONNECT",
		Connect: ConnectConfig{
			Server: getEnv("CONNECT_SERVER", ""),
			APIKey: getEnv("CONNECT_API_KEY", ""),
		},
		Databricks: DatabricksConfig{
			Host:     getEnv("DATABRICKS_HOST", ""),
			HTTPPath: getEnv("DATABRICKS_HTTP_PATH", ""),
			Token:    getEnv("DATABRICKS_TOKEN", ""),
			Table:    getEnv("DATABRICKS_TABLE", ""),
		},
		Snowflake: SnowflakeConfig{
			Account:        getEnv("SNOWFLAKE_ACCOUNT", ""),
			Home:           getEnv("SNOWFLAKE_HOME", ""),
			ConnectionName: getEnv("SNOWFLAKE_CONNECTION_NAME", "workbench"),
			Warehouse:      getEnv("SNOWFLAKE_WAREHOUSE", "DEFAULT_WH"),
			Database:       getEnv("SNOWFLAKE_DATABASE", "LENDING_CLUB"),
			Schema:         getEnv("SNOWFLAKE_SCHEMA", "PUBLIC"),
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Catalog: CatalogConfig{
			Path:              getEnv("CATALOG_PATH", ""),
			S3URI:             getEnv("CATALOG_S3_URI", ""),
			S3Endpoint:        getEnv("CATALOG_S3_ENDPOINT", ""),
			S3Region:          getEnv("CATALOG_S3_REGION", ""),
			S3AccessKeyID:     getEnv("CATALOG_S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey: getEnv("CATALOG_S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings the server cannot start without.
// Missing warehouse credentials are not checked here: they surface on each
// request so the dashboard can show them inline.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendDatabricks, BackendSnowflake, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want databricks, snowflake, postgres or sqlite)", c.Backend)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if c.RowLimit <= 0 {
		return fmt.Errorf("row limit must be positive, got %d", c.RowLimit)
	}

	if c.SessionTokenHeader == "" {
		return fmt.Errorf("session token header must not be empty")
	}

	// Wildcards are refused
	for _, origin := range c.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" || strings.Contains(origin, "*") {
			return fmt.Errorf("invalid allowed origin %q (want scheme://host[:port])", origin)
		}
	}

	return nil
}

// WarehousePath is the SQLite demo warehouse file.
func (c *Config) WarehousePath() string {
	return filepath.Join(c.DataDir, "lending_club.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
