package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/model"
)

// DefaultPostgresTable receives leads when no table is configured.
const DefaultPostgresTable = "leads"

// Pool is the subset of pgxpool.Pool the Postgres sink uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

var postgresColumns = []string{"run_id", "name", "type", "phone", "email", "address", "city", "state"}

// Postgres bulk-loads leads into a table with the COPY protocol.
type Postgres struct {
	dsn   string
	table pgx.Identifier
	runID string

	connect func(ctx context.Context, dsn string) (Pool, func(), error)
}

// NewPostgres returns a Postgres sink for dsn. table may be schema
// qualified ("crm.leads").
func NewPostgres(dsn, table, runID string) *Postgres {
	if table == "" {
		table = DefaultPostgresTable
	}
	return &Postgres{
		dsn:     dsn,
		table:   pgx.Identifier(strings.Split(table, ".")),
		runID:   runID,
		connect: connectPool,
	}
}

// Name implements Sink. The DSN is left out since it may hold a password.
func (p *Postgres) Name() string { return "postgres:" + strings.Join(p.table, ".") }

// Write implements Sink.
func (p *Postgres) Write(ctx context.Context, leads []model.Lead) error {
	pool, closeFn, err := p.connect(ctx, p.dsn)
	if err != nil {
		return err
	}
	defer closeFn()

	if _, err := pool.Exec(ctx, createTableSQL(p.table)); err != nil {
		return eris.Wrapf(err, "postgres: create table %s", p.table.Sanitize())
	}
	_, err = CopyLeads(ctx, pool, p.table, p.runID, leads)
	return err
}

// CopyLeads writes leads into table with COPY and returns the row count.
func CopyLeads(ctx context.Context, pool Pool, table pgx.Identifier, runID string, leads []model.Lead) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	rows := make([][]any, len(leads))
	for i, l := range leads {
		rows[i] = []any{runID, l.Name, l.OrgType, l.Phone, l.Email, l.Address, l.City, l.State}
	}
	n, err := pool.CopyFrom(ctx, table, postgresColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: COPY INTO %s", strings.Join(table, "."))
	}
	return n, nil
}

func createTableSQL(table pgx.Identifier) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id          BIGSERIAL PRIMARY KEY,
	run_id      TEXT NOT NULL,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	phone       TEXT NOT NULL,
	email       TEXT NOT NULL,
	address     TEXT NOT NULL,
	city        TEXT NOT NULL,
	state       TEXT NOT NULL,
	exported_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, table.Sanitize())
}

func connectPool(ctx context.Context, dsn string) (Pool, func(), error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, eris.Wrap(err, "postgres: ping")
	}
	return pool, pool.Close, nil
}
