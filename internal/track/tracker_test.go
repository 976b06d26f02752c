package track

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/audience-sync/internal/model"
)

type captureSink struct {
	records []model.RunRecord
	err     error
}

func (c *captureSink) InsertRunRecords(_ context.Context, records []model.RunRecord) error {
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, records...)
	return nil
}

func TestRecordSuccess(t *testing.T) {
	sink := &captureSink{}
	tr := New(sink)
	fixed := time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	tr.Record(context.Background(), "run-1", model.ModeDelta, model.SegmentResult{
		Key:           model.ListKey{Brand: "ACME", Segment: model.SegmentTire},
		ListID:        "111",
		Status:        model.JobStatusSuccess,
		RowsAttempted: 25,
		RowsConfirmed: 25,
	})

	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, model.BrandCode("ACME"), rec.Brand)
	assert.Equal(t, model.SegmentTire, rec.Segment)
	assert.Equal(t, "111", rec.ListID)
	assert.Equal(t, "ACME_TIRE delta upload: success", rec.Description)
	assert.Equal(t, 25, rec.RowsAttempted)
	assert.Equal(t, 25, rec.RowsConfirmed)
	assert.True(t, rec.Success)
	assert.Equal(t, fixed, rec.CreatedAt)
}

func TestRecordFailureIncludesError(t *testing.T) {
	sink := &captureSink{}
	tr := New(sink)

	tr.Record(context.Background(), "run-1", model.ModeFull, model.SegmentResult{
		Key:           model.ListKey{Brand: "ACME", Segment: model.SegmentAll},
		ListID:        "100",
		Status:        model.JobStatusFailed,
		RowsAttempted: 10,
		Error:         "run job: boom",
	})

	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	assert.False(t, rec.Success)
	assert.Zero(t, rec.RowsConfirmed)
	assert.Equal(t, "ACME_ALL full upload: failed (run job: boom)", rec.Description)
}

func TestRecordSwallowsSinkError(t *testing.T) {
	sink := &captureSink{err: assert.AnError}
	tr := New(sink)

	// Must not panic or propagate.
	tr.Record(context.Background(), "run-1", model.ModeDelta, model.SegmentResult{
		Key:    model.ListKey{Brand: "ACME", Segment: model.SegmentAll},
		Status: model.JobStatusSuccess,
	})
	assert.Empty(t, sink.records)
}
