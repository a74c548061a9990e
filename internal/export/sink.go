// Package export writes the final lead list to files and databases. Every
// sink writes one row per lead in model.Columns order.
package export

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
)

// Sink is a destination for the lead list of a run.
type Sink interface {
	// Name identifies the sink in logs, e.g. "csv:output/leads.csv".
	Name() string
	Write(ctx context.Context, leads []model.Lead) error
}

// Options selects the enabled sinks. An empty path or DSN disables a sink.
type Options struct {
	CSVPath       string
	XLSXPath      string
	SQLitePath    string
	PostgresDSN   string
	PostgresTable string
	RunID         string
}

// FromOptions builds the enabled sinks in a fixed order: CSV, XLSX, SQLite,
// Postgres.
func FromOptions(opts Options) []Sink {
	var sinks []Sink
	if opts.CSVPath != "" {
		sinks = append(sinks, NewCSV(opts.CSVPath))
	}
	if opts.XLSXPath != "" {
		sinks = append(sinks, NewXLSX(opts.XLSXPath))
	}
	if opts.SQLitePath != "" {
		sinks = append(sinks, NewSQLite(opts.SQLitePath, opts.RunID))
	}
	if opts.PostgresDSN != "" {
		sinks = append(sinks, NewPostgres(opts.PostgresDSN, opts.PostgresTable, opts.RunID))
	}
	return sinks
}

// WriteAll writes leads to every sink. A failing sink does not stop the
// others; the first failure is returned as a KindInfrastructure error.
func WriteAll(ctx context.Context, sinks []Sink, leads []model.Lead) error {
	var first error
	for _, s := range sinks {
		if err := s.Write(ctx, leads); err != nil {
			zap.L().Error("export: sink failed", zap.String("sink", s.Name()), zap.Error(err))
			if first == nil {
				first = resilience.NewInfrastructure(eris.Wrapf(err, "export: %s", s.Name()))
			}
			continue
		}
		zap.L().Info("export: wrote leads", zap.String("sink", s.Name()), zap.Int("leads", len(leads)))
	}
	return first
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return eris.Wrapf(os.MkdirAll(dir, 0o755), "export: create dir %s", dir)
}
