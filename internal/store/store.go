// Package store provides the customer source query and the append-only run
// tracking sink.
package store

import (
	"context"

	"github.com/sells-group/audience-sync/internal/model"
)

// FetchOptions parameterizes the source query.
type FetchOptions struct {
	// Mode selects the delta or full row set.
	Mode model.UploadMode
	// Brand restricts the query to one brand label; empty fetches all.
	Brand string
}

// RunFilter specifies criteria for listing tracking rows.
type RunFilter struct {
	RunID string
	Brand string
	Limit int
}

// Source supplies raw customer rows. The rows are consumed as read-only
// tabular data; ordering is irrelevant.
type Source interface {
	FetchCustomers(ctx context.Context, opts FetchOptions) ([]model.CustomerRecord, error)
}

// Tracker is the write-only tracking sink. Writes are best-effort from the
// pipeline's point of view; the caller logs and continues on failure.
type Tracker interface {
	InsertRunRecords(ctx context.Context, records []model.RunRecord) error
}

// Store is the full persistence surface: source rows in, tracking rows out,
// plus run history for the reporting commands.
type Store interface {
	Source
	Tracker
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error)
	Migrate(ctx context.Context) error
	Close() error
}
