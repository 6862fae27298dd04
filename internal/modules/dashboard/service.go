// Package dashboard runs the render cycle: filters in, charts, metrics and
// the loan table out.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/internal/modules/analytics"
	"github.com/aristath/lcdash/internal/modules/catalog"
	"github.com/aristath/lcdash/internal/modules/presentation"
	"github.com/aristath/lcdash/internal/modules/query"
	"github.com/aristath/lcdash/internal/warehouse"
)

// View is everything the dashboard shows for one filter selection.
type View struct {
	CycleID        string                 `json:"cycle_id" msgpack:"cycle_id"`
	Backend        string                 `json:"backend" msgpack:"backend"`
	Filters        query.FilterSelection  `json:"filters" msgpack:"filters"`
	SQL            string                 `json:"sql,omitempty" msgpack:"sql,omitempty"`
	PrincipalChart presentation.ChartSpec `json:"principal_chart" msgpack:"principal_chart"`
	RiskChart      presentation.ChartSpec `json:"risk_chart" msgpack:"risk_chart"`
	Metrics        []presentation.Tile    `json:"metrics" msgpack:"metrics"`
	Table          presentation.Table     `json:"table" msgpack:"table"`
	RenderedAt     time.Time              `json:"rendered_at" msgpack:"rendered_at"`
}

// Options tune the render cycle.
type Options struct {
	Theme    presentation.Theme
	RowLimit int
	// Debug includes the generated statement in every view.
	Debug bool
}

// Service renders dashboard views.
type Service struct {
	catalog   *catalog.Catalog
	connector warehouse.Connector
	opts      Options
	log       zerolog.Logger
}

// NewService creates a dashboard service.
func NewService(cat *catalog.Catalog, connector warehouse.Connector, opts Options, log zerolog.Logger) *Service {
	if opts.RowLimit <= 0 {
		opts.RowLimit = presentation.DefaultRowLimit
	}
	return &Service{
		catalog:   cat,
		connector: connector,
		opts:      opts,
		log:       log.With().Str("service", "dashboard").Logger(),
	}
}

// Backend names the warehouse behind the service.
func (s *Service) Backend() string {
	return s.connector.Backend()
}

// Options returns the sidebar choices for the selected regions.
func (s *Service) Options(regions []string) catalog.Options {
	return s.catalog.Options(regions)
}

// Statement builds the warehouse statement for a selection without running
// it. Unknown offices are a ValidationError.
func (s *Service) Statement(sel query.FilterSelection) (string, error) {
	zips, err := s.catalog.ResolveOffices(sel.Office)
	if err != nil {
		return "", err
	}
	preds := query.BuildPredicates(sel, zips, s.catalog.Defaults())
	return query.Assemble(s.connector.Dialect(), preds), nil
}

func (s *Service) rows(ctx context.Context, session warehouse.Session, sel query.FilterSelection) ([]domain.LoanRecord, string, error) {
	stmt, err := s.Statement(sel)
	if err != nil {
		return nil, "", err
	}
	rows, err := s.connector.Query(ctx, session, stmt)
	if err != nil {
		return nil, stmt, err
	}
	return rows, stmt, nil
}

// Render runs one full cycle. Cycles are independent; nothing is cached
// between them.
func (s *Service) Render(ctx context.Context, session warehouse.Session, sel query.FilterSelection) (*View, error) {
	cycleID := uuid.NewString()
	log := s.log.With().Str("cycle_id", cycleID).Str("backend", s.connector.Backend()).Logger()
	start := time.Now()

	rows, stmt, err := s.rows(ctx, session, sel)
	if err != nil {
		log.Warn().Err(err).Msg("Render cycle failed")
		return nil, err
	}

	result := analytics.Compute(rows)

	view := &View{
		CycleID:        cycleID,
		Backend:        s.connector.Backend(),
		Filters:        sel,
		PrincipalChart: presentation.PrincipalChart(result.Principal, s.opts.Theme),
		RiskChart:      presentation.RiskChart(result.Risk, s.opts.Theme),
		Metrics:        presentation.Metrics(result.Metrics),
		Table:          presentation.FormatTable(rows, s.opts.RowLimit),
		RenderedAt:     time.Now().UTC(),
	}
	if s.opts.Debug {
		view.SQL = stmt
	}

	log.Info().
		Int("rows", len(rows)).
		Bool("truncated", view.Table.Truncated).
		Dur("duration", time.Since(start)).
		Msg("Render cycle complete")

	return view, nil
}

// Export writes every matching row to w as an XLSX workbook.
func (s *Service) Export(ctx context.Context, session warehouse.Session, sel query.FilterSelection, w io.Writer) (int, error) {
	rows, _, err := s.rows(ctx, session, sel)
	if err != nil {
		return 0, err
	}
	if err := presentation.WriteXLSX(w, presentation.FormatTable(rows, 0)); err != nil {
		return 0, err
	}
	s.log.Info().Int("rows", len(rows)).Msg("Exported loan table")
	return len(rows), nil
}

// Greeting returns "Hello, <name>!" when the warehouse knows the viewer,
// or "" otherwise.
func (s *Service) Greeting(ctx context.Context, session warehouse.Session) (string, error) {
	name, err := s.connector.Identity(ctx, session)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", nil
	}
	return fmt.Sprintf("Hello, %s!", name), nil
}
