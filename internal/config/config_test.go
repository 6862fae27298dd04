package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv("LCDASH_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, dir, cfg.DataDir)
	assert.DirExists(t, dir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 1000, cfg.RowLimit)
	assert.Equal(t, "Posit-Connect-User-Session-Token", cfg.SessionTokenHeader)
	assert.Equal(t, "#FFFFFF", cfg.ChartTextColor)
	assert.False(t, cfg.Managed)
	assert.Equal(t, "workbench", cfg.Snowflake.ConnectionName)
	assert.Equal(t, "DEFAULT_WH", cfg.Snowflake.Warehouse)
	assert.Equal(t, "LENDING_CLUB", cfg.Snowflake.Database)
	assert.Equal(t, "PUBLIC", cfg.Snowflake.Schema)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, filepath.Join(dir, "lending_club.db"), cfg.WarehousePath())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("LCDASH_DATA_DIR", t.TempDir())
	t.Setenv("LCDASH_BACKEND", "Databricks")
	t.Setenv("LCDASH_PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("LCDASH_ROW_LIMIT", "250")
	t.Setenv("RSTUDIO_PRODUCT", "CONNECT")
	t.Setenv("CONNECT_SERVER", "https://connect.example.com")
	t.Setenv("DATABRICKS_HOST", "adb-1.azuredatabricks.net")
	t.Setenv("DATABRICKS_HTTP_PATH", "/sql/1.0/warehouses/abc")
	t.Setenv("CATALOG_S3_URI", "s3://bucket/catalog.yaml")
	t.Setenv("LCDASH_ALLOWED_ORIGINS", "https://dash.example.com, http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendDatabricks, cfg.Backend)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 250, cfg.RowLimit)
	assert.True(t, cfg.Managed)
	assert.Equal(t, "https://connect.example.com", cfg.Connect.Server)
	assert.Equal(t, "adb-1.azuredatabricks.net", cfg.Databricks.Host)
	assert.Equal(t, "/sql/1.0/warehouses/abc", cfg.Databricks.HTTPPath)
	assert.Equal(t, "s3://bucket/catalog.yaml", cfg.Catalog.S3URI)
	assert.Equal(t, []string{"https://dash.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LCDASH_DATA_DIR", t.TempDir())
	t.Setenv("LCDASH_PORT", "not-a-port")
	t.Setenv("DEV_MODE", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("LCDASH_DATA_DIR", t.TempDir())
	t.Setenv("LCDASH_BACKEND", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestValidate(t *testing.T) {
	valid := Config{Backend: BackendSQLite, Port: 8080, RowLimit: 1000, SessionTokenHeader: DefaultSessionTokenHeader}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "snowflake", mutate: func(c *Config) { c.Backend = BackendSnowflake }},
		{name: "postgres without url still starts", mutate: func(c *Config) { c.Backend = BackendPostgres }},
		{name: "zero port", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "zero row limit", mutate: func(c *Config) { c.RowLimit = 0 }, wantErr: true},
		{name: "empty header", mutate: func(c *Config) { c.SessionTokenHeader = "" }, wantErr: true},
		{name: "empty backend", mutate: func(c *Config) { c.Backend = "" }, wantErr: true},
		{name: "allowed origin", mutate: func(c *Config) { c.AllowedOrigins = []string{"https://dash.example.com"} }},
		{name: "wildcard origin", mutate: func(c *Config) { c.AllowedOrigins = []string{"*"} }, wantErr: true},
		{name: "origin without scheme", mutate: func(c *Config) { c.AllowedOrigins = []string{"dash.example.com"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
