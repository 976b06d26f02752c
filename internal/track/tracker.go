// Package track converts segment upload outcomes into append-only tracking
// rows and writes them best-effort.
package track

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/audience-sync/internal/model"
	"github.com/sells-group/audience-sync/internal/store"
)

// Tracker records segment results. Tracking is observational: a failed write
// is logged and swallowed so it never fails a run that uploaded successfully.
type Tracker struct {
	sink store.Tracker
	now  func() time.Time
}

// New creates a Tracker writing to the given sink.
func New(sink store.Tracker) *Tracker {
	return &Tracker{sink: sink, now: time.Now}
}

// Record writes one tracking row for a segment result.
func (t *Tracker) Record(ctx context.Context, runID string, mode model.UploadMode, res model.SegmentResult) {
	rec := model.RunRecord{
		ID:            uuid.NewString(),
		RunID:         runID,
		Brand:         res.Key.Brand,
		Segment:       res.Key.Segment,
		ListID:        res.ListID,
		Description:   describe(mode, res),
		RowsAttempted: res.RowsAttempted,
		RowsConfirmed: res.RowsConfirmed,
		Success:       res.Succeeded(),
		CreatedAt:     t.now().UTC(),
	}

	if err := t.sink.InsertRunRecords(ctx, []model.RunRecord{rec}); err != nil {
		zap.L().Warn("failed to write tracking row",
			zap.String("run_id", runID),
			zap.String("list_key", res.Key.String()),
			zap.Error(err))
	}
}

func describe(mode model.UploadMode, res model.SegmentResult) string {
	desc := fmt.Sprintf("%s %s upload: %s", res.Key, mode, res.Status)
	if res.Error != "" {
		desc = fmt.Sprintf("%s (%s)", desc, res.Error)
	}
	return desc
}
