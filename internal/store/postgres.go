package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/audience-sync/internal/db"
	"github.com/sells-group/audience-sync/internal/model"
)

// PostgresStore implements Store using pgxpool. It is both the customer
// source (via the feed function installed alongside the warehouse) and the
// tracking sink.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool. The pool is the
// run's single database handle; Close releases it on every exit path.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS upload_runs (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL,
	brand          TEXT NOT NULL,
	segment        TEXT NOT NULL,
	list_id        TEXT NOT NULL,
	description    TEXT NOT NULL,
	rows_attempted INTEGER NOT NULL,
	rows_confirmed INTEGER NOT NULL,
	success        BOOLEAN NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_upload_runs_run_id ON upload_runs(run_id);
CREATE INDEX IF NOT EXISTS idx_upload_runs_brand ON upload_runs(brand);
CREATE INDEX IF NOT EXISTS idx_upload_runs_created_at ON upload_runs(created_at DESC);
`

// Migrate creates the tracking table. The customer feed function is owned by
// the warehouse team and is not managed here.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const fetchCustomersSQL = `
SELECT customer_no, first_name, last_name, contact_ref, email, phone,
       zip_code, state_code, brand,
       is_tire_customer, is_service_customer, is_lapsed_customer,
       is_repeat_customer, is_non_customer,
       visit_count, last_visit_at
FROM customer_feed($1, $2)
`

// FetchCustomers executes the feed function with the full-upload flag and an
// optional brand filter, decoding each row once into a CustomerRecord.
func (s *PostgresStore) FetchCustomers(ctx context.Context, opts FetchOptions) ([]model.CustomerRecord, error) {
	fullUpload := opts.Mode == model.ModeFull

	var brand *string
	if opts.Brand != "" {
		brand = &opts.Brand
	}

	rows, err := s.pool.Query(ctx, fetchCustomersSQL, fullUpload, brand)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch customers")
	}
	defer rows.Close()

	var records []model.CustomerRecord
	for rows.Next() {
		var (
			rec         model.CustomerRecord
			firstName   *string
			lastName    *string
			contactRef  *string
			email       *string
			phone       *string
			zipCode     *string
			stateCode   *string
			brandLabel  *string
			visitCount  *int
			lastVisitAt *time.Time
		)
		if err := rows.Scan(
			&rec.CustomerNo, &firstName, &lastName, &contactRef, &email, &phone,
			&zipCode, &stateCode, &brandLabel,
			&rec.Flags.Tire, &rec.Flags.Service, &rec.Flags.Lapsed,
			&rec.Flags.Repeat, &rec.Flags.NonCustomer,
			&visitCount, &lastVisitAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan customer row")
		}

		rec.FirstName = deref(firstName)
		rec.LastName = deref(lastName)
		rec.ContactRef = deref(contactRef)
		rec.Email = deref(email)
		rec.Phone = deref(phone)
		rec.ZipCode = deref(zipCode)
		rec.StateCode = deref(stateCode)
		rec.Brand = deref(brandLabel)
		if visitCount != nil {
			rec.VisitCount = *visitCount
		}
		if lastVisitAt != nil {
			rec.LastVisitAt = *lastVisitAt
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate customer rows")
	}
	return records, nil
}

var runRecordColumns = []string{
	"id", "run_id", "brand", "segment", "list_id", "description",
	"rows_attempted", "rows_confirmed", "success", "created_at",
}

// InsertRunRecords appends tracking rows via COPY.
func (s *PostgresStore) InsertRunRecords(ctx context.Context, records []model.RunRecord) error {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ID, r.RunID, string(r.Brand), string(r.Segment), r.ListID,
			r.Description, r.RowsAttempted, r.RowsConfirmed, r.Success, r.CreatedAt,
		})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "upload_runs", runRecordColumns, rows); err != nil {
		return eris.Wrap(err, "postgres: insert run records")
	}
	return nil
}

const listRunsSQL = `
SELECT id, run_id, brand, segment, list_id, description,
       rows_attempted, rows_confirmed, success, created_at
FROM upload_runs
WHERE ($1 = '' OR run_id = $1)
  AND ($2 = '' OR brand = $2)
ORDER BY created_at DESC
LIMIT $3
`

// ListRuns returns tracking rows newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, listRunsSQL, filter.RunID, filter.Brand, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
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
			return nil, eris.Wrap(err, "postgres: scan run record")
		}
		r.Brand = model.BrandCode(brand)
		r.Segment = model.SegmentName(segment)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate run records")
	}
	return records, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
