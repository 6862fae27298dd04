// Package warehouse runs dashboard queries against the configured data
// warehouse. A Connector is chosen once at startup; each query opens its
// own connection, runs one statement and closes it.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/internal/modules/query"
	"github.com/aristath/lcdash/internal/utils"
)

// Session carries the per-request identity of the viewer.
type Session struct {
	// Token is the user session token forwarded by the hosting platform.
	Token string
}

// Connector runs dashboard statements on one warehouse.
type Connector interface {
	Backend() string
	Dialect() query.Dialect
	Query(ctx context.Context, session Session, statement string) ([]domain.LoanRecord, error)
	// Identity returns the viewer's display name, or "" when the backend
	// cannot tell.
	Identity(ctx context.Context, session Session) (string, error)
}

// queryer is satisfied by *sql.DB and *sql.Conn.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

type openFunc func(ctx context.Context, session Session) (queryer, error)

type identityFunc func(ctx context.Context, session Session) (string, error)

// sqlConnector is the database/sql based Connector shared by every backend.
type sqlConnector struct {
	backend  string
	dialect  query.Dialect
	open     openFunc
	identity identityFunc
	log      zerolog.Logger
}

func (c *sqlConnector) Backend() string        { return c.backend }
func (c *sqlConnector) Dialect() query.Dialect { return c.dialect }

func (c *sqlConnector) Query(ctx context.Context, session Session, statement string) ([]domain.LoanRecord, error) {
	db, err := c.open(ctx, session)
	if err != nil {
		return nil, c.wrap(err)
	}
	defer db.Close()

	done := utils.MeasureQuery(c.backend, c.log)

	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return nil, c.wrap(err)
	}
	defer rows.Close()

	records, err := ScanLoans(rows)
	if err != nil {
		return nil, c.wrap(err)
	}
	done(len(records))
	return records, nil
}

func (c *sqlConnector) Identity(ctx context.Context, session Session) (string, error) {
	if c.identity == nil {
		return "", nil
	}
	name, err := c.identity(ctx, session)
	if err != nil {
		return "", c.wrap(err)
	}
	return name, nil
}

// wrap leaves configuration errors as they are and reports everything else
// as a failed query.
func (c *sqlConnector) wrap(err error) error {
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		return err
	}
	var qErr *domain.QueryExecutionError
	if errors.As(err, &qErr) {
		return err
	}
	return &domain.QueryExecutionError{Backend: c.backend, Err: err}
}

// Unavailable is a Connector for a backend whose settings are incomplete.
// Every call returns the configuration error so it can be shown to the
// viewer instead of failing at startup.
type Unavailable struct {
	Name  string
	Dial  query.Dialect
	Cause error
}

func (u *Unavailable) Backend() string        { return u.Name }
func (u *Unavailable) Dialect() query.Dialect { return u.Dial }

func (u *Unavailable) Query(ctx context.Context, session Session, statement string) ([]domain.LoanRecord, error) {
	return nil, u.Cause
}

func (u *Unavailable) Identity(ctx context.Context, session Session) (string, error) {
	return "", u.Cause
}

func configError(backend, format string, args ...any) error {
	return &domain.ConfigurationError{Backend: backend, Reason: fmt.Sprintf(format, args...)}
}
