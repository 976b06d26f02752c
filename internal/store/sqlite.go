package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/audience-sync/internal/model"
)

// SQLiteStore implements run tracking using modernc.org/sqlite. It exists for
// local runs and development, where the warehouse is unreachable; it cannot
// serve as a customer source.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// A single connection keeps :memory: databases coherent and sidesteps
	// writer contention.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS upload_runs (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL,
	brand          TEXT NOT NULL,
	segment        TEXT NOT NULL,
	list_id        TEXT NOT NULL,
	description    TEXT NOT NULL,
	rows_attempted INTEGER NOT NULL,
	rows_confirmed INTEGER NOT NULL,
	success        INTEGER NOT NULL,
	created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_upload_runs_run_id ON upload_runs(run_id);
CREATE INDEX IF NOT EXISTS idx_upload_runs_created_at ON upload_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FetchCustomers is unsupported: the customer feed lives in the warehouse.
func (s *SQLiteStore) FetchCustomers(_ context.Context, _ FetchOptions) ([]model.CustomerRecord, error) {
	return nil, eris.New("sqlite: customer source not available; use the postgres driver")
}

func (s *SQLiteStore) InsertRunRecords(ctx context.Context, records []model.RunRecord) error {
	for _, r := range records {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO upload_runs (id, run_id, brand, segment, list_id, description, rows_attempted, rows_confirmed, success, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.RunID, string(r.Brand), string(r.Segment), r.ListID,
			r.Description, r.RowsAttempted, r.RowsConfirmed, r.Success, r.CreatedAt,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert run record")
		}
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, brand, segment, list_id, description, rows_attempted, rows_confirmed, success, created_at
		 FROM upload_runs
		 WHERE (? = '' OR run_id = ?) AND (? = '' OR brand = ?)
		 ORDER BY created_at DESC
		 LIMIT ?`,
		filter.RunID, filter.RunID, filter.Brand, filter.Brand, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var records []model.RunRecord
	for rows.Next() {
		var r model.RunRecord
		var brand, segment string
		if err := rows.Scan(
			&r.ID, &r.RunID, &brand, &segment, &r.ListID, &r.Description,
			&r.RowsAttempted, &r.RowsConfirmed, &r.Success, &r.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run record")
		}
		r.Brand = model.BrandCode(brand)
		r.Segment = model.SegmentName(segment)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate run records")
	}
	return records, nil
}
