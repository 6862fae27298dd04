package warehouse

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/lcdash/internal/clients/connect"
	"github.com/aristath/lcdash/internal/config"
	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/internal/modules/catalog"
	"github.com/aristath/lcdash/internal/modules/presentation"
	"github.com/aristath/lcdash/internal/modules/query"
)

func nopLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func openDemo(t *testing.T) *SQLite {
	t.Helper()
	w, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "lc.db"), nopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func statement(t *testing.T, sel query.FilterSelection) string {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	zips, err := cat.ResolveOffices(sel.Office)
	require.NoError(t, err)
	return query.Assemble(query.SQLite, query.BuildPredicates(sel, zips, cat.Defaults()))
}

func TestSQLite_QueryAllRows(t *testing.T) {
	w := openDemo(t)

	rows, err := w.Query(context.Background(), Session{}, statement(t, query.FilterSelection{}))
	require.NoError(t, err)

	// The sample holds 60 loans, 4 of them without a state.
	require.Len(t, rows, 56)
	for _, r := range rows {
		assert.NotEmpty(t, r.State)
		assert.Equal(t, query.RegionForZip(r.ZipCode), r.Region)
		assert.Equal(t, r.ZipCode[:3], r.OfficeNo)
		assert.NotEmpty(t, r.MemberID)
		assert.True(t, r.LoanAmount.Valid)
		assert.True(t, r.InterestRate.Valid, "rate %q", r.InterestRate.Raw)
		assert.True(t, r.TermMonths.Valid, "term %q", r.Term)
	}
}

func TestSQLite_QueryFiltered(t *testing.T) {
	w := openDemo(t)

	rows, err := w.Query(context.Background(), Session{}, statement(t, query.FilterSelection{
		Region: []string{domain.RegionWest},
	}))
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, domain.RegionWest, r.Region)
	}
}

func TestSQLite_PurposeFilterMatchesPurposeColumn(t *testing.T) {
	w := openDemo(t)

	rows, err := w.Query(context.Background(), Session{}, statement(t, query.FilterSelection{
		Purpose: []string{"Credit card refinancing"},
	}))
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	table := presentation.FormatTable(rows, presentation.DefaultRowLimit)
	purposeCol := -1
	for i, c := range table.Columns {
		if c.Label == "Purpose" {
			purposeCol = i
		}
	}
	require.GreaterOrEqual(t, purposeCol, 0)

	for _, row := range table.Rows {
		assert.Equal(t, "Credit card refinancing", row[purposeCol])
	}
}

func TestSQLite_MalformedIncomeIsKept(t *testing.T) {
	w := openDemo(t)

	rows, err := w.Query(context.Background(), Session{}, statement(t, query.FilterSelection{}))
	require.NoError(t, err)

	var invalid int
	for _, r := range rows {
		if !r.AnnualIncome.Valid {
			invalid++
			assert.Equal(t, "n/a", r.AnnualIncome.Raw)
		}
	}
	assert.Positive(t, invalid)
}

func TestSQLite_BadStatementIsQueryExecutionError(t *testing.T) {
	w := openDemo(t)

	_, err := w.Query(context.Background(), Session{}, "SELECT * FROM no_such_table")
	require.Error(t, err)

	var qErr *domain.QueryExecutionError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, config.BackendSQLite, qErr.Backend)
}

func TestSQLite_Identity(t *testing.T) {
	w := openDemo(t)

	name, err := w.Identity(context.Background(), Session{})
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Equal(t, "sqlite", w.Dialect().Name)
	assert.Equal(t, config.BackendSQLite, w.Backend())
}

func TestScanLoans_CaseInsensitiveColumns(t *testing.T) {
	w := openDemo(t)
	conn := w.db.Conn()

	rows, err := conn.QueryContext(context.Background(), `
		SELECT 'M1' AS MEMBER_ID, 'West' AS Region, '10.5%' AS INT_RATE,
		       ' 36 months' AS TERM, NULL AS OUT_PRNCP, 'x' AS EXTRA`)
	require.NoError(t, err)
	defer rows.Close()

	records, err := ScanLoans(rows)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "M1", r.MemberID)
	assert.Equal(t, "West", r.Region)
	assert.Equal(t, 10.5, r.InterestRate.Value)
	assert.Equal(t, 36.0, r.TermMonths.Value)
	assert.Equal(t, " 36 months", r.Term)
	assert.False(t, r.OutPrincipal.Valid)
	assert.Empty(t, r.OutPrincipal.Raw)
}

func TestUnavailable(t *testing.T) {
	cause := &domain.ConfigurationError{Backend: "snowflake", Reason: "No Snowflake credentials found"}
	u := &Unavailable{Name: "snowflake", Dial: query.Snowflake, Cause: cause}

	_, err := u.Query(context.Background(), Session{}, "SELECT 1")
	assert.Same(t, cause, err)
	_, err = u.Identity(context.Background(), Session{})
	assert.Same(t, cause, err)
	assert.Equal(t, "snowflake", u.Backend())
	assert.True(t, u.Dialect().Upper)
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken{Backend: "databricks", Value: "dapi", EnvVar: "DATABRICKS_TOKEN"}.Token(context.Background(), Session{})
	require.NoError(t, err)
	assert.Equal(t, "dapi", token)

	_, err = StaticToken{Backend: "databricks", EnvVar: "DATABRICKS_TOKEN"}.Token(context.Background(), Session{})
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "DATABRICKS_TOKEN")
}

type fakeExchanger struct {
	token string
	err   error
	got   string
}

func (f *fakeExchanger) ExchangeSessionToken(ctx context.Context, sessionToken string) (string, error) {
	f.got = sessionToken
	if sessionToken == "" {
		return "", connect.ErrMissingSessionToken
	}
	return f.token, f.err
}

func TestSessionExchange(t *testing.T) {
	ex := &fakeExchanger{token: "oauth"}
	src := SessionExchange{Backend: "snowflake", Exchanger: ex}

	token, err := src.Token(context.Background(), Session{Token: "sess"})
	require.NoError(t, err)
	assert.Equal(t, "oauth", token)
	assert.Equal(t, "sess", ex.got)

	_, err = src.Token(context.Background(), Session{})
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	ex.err = errors.New("upstream down")
	_, err = src.Token(context.Background(), Session{Token: "sess"})
	require.Error(t, err)
	assert.False(t, errors.As(err, &cfgErr))
}

func TestSnowflakeCredentials_NoneFound(t *testing.T) {
	creds := SnowflakeCredentials(config.SnowflakeConfig{}, false, nil)

	_, err := creds(context.Background(), Session{})
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "No Snowflake credentials found", cfgErr.Reason)
}

func TestSnowflakeCredentials_Managed(t *testing.T) {
	cfg := config.SnowflakeConfig{Account: "acme-xy123", Warehouse: "DEFAULT_WH", Database: "LENDING_CLUB", Schema: "PUBLIC"}
	creds := SnowflakeCredentials(cfg, true, SessionExchange{Backend: "snowflake", Exchanger: &fakeExchanger{token: "oauth"}})

	sf, err := creds(context.Background(), Session{Token: "sess"})
	require.NoError(t, err)
	assert.Equal(t, "acme-xy123", sf.Account)
	assert.Equal(t, gosnowflake.AuthTypeOAuth, sf.Authenticator)
	assert.Equal(t, "oauth", sf.Token)
	assert.Equal(t, "DEFAULT_WH", sf.Warehouse)
	assert.Equal(t, "LENDING_CLUB", sf.Database)
	assert.Equal(t, "PUBLIC", sf.Schema)
}

func TestSnowflakeCredentials_ManagedWithoutAccount(t *testing.T) {
	creds := SnowflakeCredentials(config.SnowflakeConfig{}, true, SessionExchange{Exchanger: &fakeExchanger{}})

	_, err := creds(context.Background(), Session{Token: "sess"})
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

const connectionsTOML = `
[workbench]
account = "acme-xy123"
user = "analyst"
authenticator = "oauth"
token_file_path = "%TOKEN%"
warehouse = "OTHER_WH"

[password]
account = "acme-xy123"
user = "svc"
password = "hunter2"

[browser]
account = "acme-xy123"
authenticator = "externalbrowser"
`

func writeConnections(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	tokenPath := filepath.Join(home, "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("file-token\n"), 0600))
	content := strings.ReplaceAll(connectionsTOML, "%TOKEN%", tokenPath)
	require.NoError(t, os.WriteFile(filepath.Join(home, "connections.toml"), []byte(content), 0600))
	return home
}

func TestSnowflakeCredentials_LocalProfile(t *testing.T) {
	home := writeConnections(t)
	cfg := config.SnowflakeConfig{Home: home, ConnectionName: "workbench", Warehouse: "DEFAULT_WH", Database: "LENDING_CLUB", Schema: "PUBLIC"}

	sf, err := SnowflakeCredentials(cfg, false, nil)(context.Background(), Session{})
	require.NoError(t, err)
	assert.Equal(t, "acme-xy123", sf.Account)
	assert.Equal(t, "analyst", sf.User)
	assert.Equal(t, gosnowflake.AuthTypeOAuth, sf.Authenticator)
	assert.Equal(t, "file-token", sf.Token)
	assert.Equal(t, "DEFAULT_WH", sf.Warehouse, "configured placement wins over the profile")
}

func TestLoadConnectionProfile(t *testing.T) {
	home := writeConnections(t)
	cfg := config.SnowflakeConfig{Warehouse: "DEFAULT_WH"}

	p, err := LoadConnectionProfile(home, "password")
	require.NoError(t, err)
	sf, err := p.driverConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, gosnowflake.AuthTypeSnowflake, sf.Authenticator)
	assert.Equal(t, "hunter2", sf.Password)

	p, err = LoadConnectionProfile(home, "browser")
	require.NoError(t, err)
	_, err = p.driverConfig(cfg)
	assert.Error(t, err)

	_, err = LoadConnectionProfile(home, "missing")
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = LoadConnectionProfile(t.TempDir(), "workbench")
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNew_Selection(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		cfg         config.Config
		unavailable bool
		backend     string
	}{
		{
			name:    "sqlite",
			cfg:     config.Config{Backend: config.BackendSQLite, DataDir: t.TempDir()},
			backend: config.BackendSQLite,
		},
		{
			name:        "postgres without url",
			cfg:         config.Config{Backend: config.BackendPostgres},
			unavailable: true,
			backend:     config.BackendPostgres,
		},
		{
			name:    "postgres",
			cfg:     config.Config{Backend: config.BackendPostgres, DatabaseURL: "postgres://u:p@localhost:5432/lc"},
			backend: config.BackendPostgres,
		},
		{
			name:        "databricks without host",
			cfg:         config.Config{Backend: config.BackendDatabricks},
			unavailable: true,
			backend:     config.BackendDatabricks,
		},
		{
			name: "databricks managed without connect settings",
			cfg: config.Config{
				Backend:    config.BackendDatabricks,
				Managed:    true,
				Databricks: config.DatabricksConfig{Host: "h", HTTPPath: "/p"},
			},
			unavailable: true,
			backend:     config.BackendDatabricks,
		},
		{
			name: "databricks with token",
			cfg: config.Config{
				Backend:    config.BackendDatabricks,
				Databricks: config.DatabricksConfig{Host: "h", HTTPPath: "/p", Token: "t", Table: "hive.loans.lc"},
			},
			backend: config.BackendDatabricks,
		},
		{
			name:    "snowflake resolves credentials per request",
			cfg:     config.Config{Backend: config.BackendSnowflake},
			backend: config.BackendSnowflake,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := New(ctx, &tt.cfg, nopLogger())
			require.NoError(t, err)
			if c, ok := conn.(interface{ Close() error }); ok {
				defer c.Close()
			}

			_, isUnavailable := conn.(*Unavailable)
			assert.Equal(t, tt.unavailable, isUnavailable)
			assert.Equal(t, tt.backend, conn.Backend())
		})
	}
}

func TestNew_DatabricksTableOverride(t *testing.T) {
	cfg := config.Config{
		Backend:    config.BackendDatabricks,
		Databricks: config.DatabricksConfig{Host: "h", HTTPPath: "/p", Token: "t", Table: "hive.loans.lc"},
	}
	conn, err := New(context.Background(), &cfg, nopLogger())
	require.NoError(t, err)
	assert.Equal(t, "`hive`.`loans`.`lc`", conn.Dialect().Table())
}

func TestSnowflake_QueryWithoutCredentials(t *testing.T) {
	conn := NewSnowflake(SnowflakeCredentials(config.SnowflakeConfig{}, false, nil), nopLogger())

	_, err := conn.Query(context.Background(), Session{}, "SELECT 1")
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "configuration error (snowflake): No Snowflake credentials found", err.Error())
}
