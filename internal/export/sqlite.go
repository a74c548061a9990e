package export

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-cli/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	phone       TEXT NOT NULL,
	email       TEXT NOT NULL,
	address     TEXT NOT NULL,
	city        TEXT NOT NULL,
	state       TEXT NOT NULL,
	exported_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads(run_id);
`

const sqliteInsert = `INSERT INTO leads (run_id, name, type, phone, email, address, city, state, exported_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLite appends leads to the leads table of a SQLite database. Rows of
// different runs are told apart by run_id.
type SQLite struct {
	path  string
	runID string
}

// NewSQLite returns a SQLite sink writing to the database file at path.
func NewSQLite(path, runID string) *SQLite {
	return &SQLite{path: path, runID: runID}
}

// Name implements Sink.
func (s *SQLite) Name() string { return "sqlite:" + s.path }

// Write implements Sink. All rows go in one transaction.
func (s *SQLite) Write(ctx context.Context, leads []model.Lead) error {
	if err := ensureDir(s.path); err != nil {
		return err
	}
	db, err := openSQLite(s.path)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteInsert)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, l := range leads {
		if _, err := stmt.ExecContext(ctx, s.runID,
			l.Name, l.OrgType, l.Phone, l.Email, l.Address, l.City, l.State, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s", l.Name)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return db, nil
}
