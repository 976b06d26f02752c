package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/audience-sync/internal/model"
	"github.com/sells-group/audience-sync/internal/route"
	"github.com/sells-group/audience-sync/internal/store"
)

type fakeSource struct {
	records []model.CustomerRecord
	err     error
	gotOpts store.FetchOptions
}

func (f *fakeSource) FetchCustomers(_ context.Context, opts store.FetchOptions) ([]model.CustomerRecord, error) {
	f.gotOpts = opts
	return f.records, f.err
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	failKeys map[string]bool
}

func (f *fakeUploader) UploadSegment(_ context.Context, seg *model.Segment) model.SegmentResult {
	f.mu.Lock()
	f.uploaded = append(f.uploaded, seg.Key.String())
	f.mu.Unlock()

	res := model.SegmentResult{
		Key:           seg.Key,
		ListID:        seg.ListID,
		Status:        model.JobStatusSuccess,
		RowsAttempted: len(seg.Operations),
		RowsConfirmed: len(seg.Operations),
	}
	if f.failKeys[seg.Key.String()] {
		res.Status = model.JobStatusFailed
		res.RowsConfirmed = 0
		res.Error = "job reported FAILED"
	}
	return res
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []model.SegmentResult
	runIDs  map[string]bool
}

func (f *fakeRecorder) Record(_ context.Context, runID string, _ model.UploadMode, res model.SegmentResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.runIDs == nil {
		f.runIDs = make(map[string]bool)
	}
	f.runIDs[runID] = true
	f.results = append(f.results, res)
}

func testMapping(t *testing.T) route.Mapping {
	t.Helper()
	m, err := route.BuildMapping(map[string]map[string]string{
		"ACME": {
			"ALL":  "100",
			"TIRE": "111",
		},
		"ZENITH": {
			"ALL": "200",
		},
	})
	require.NoError(t, err)
	return m
}

func testRecords() []model.CustomerRecord {
	return []model.CustomerRecord{
		{
			CustomerNo: "C-1",
			Email:      "jane@example.com",
			Brand:      "ACME",
			Flags:      model.SegmentFlags{Tire: true},
		},
		{
			CustomerNo: "C-2",
			Email:      "bob@example.com",
			Phone:      "(212) 555-1234",
			Brand:      "zenith",
		},
		// No usable identifiers: contributes nothing anywhere.
		{
			CustomerNo: "C-3",
			Email:      "x@y",
			Brand:      "ACME",
			Flags:      model.SegmentFlags{Tire: true},
		},
	}
}

func TestRunUploadsSegmentsInOrder(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	up := &fakeUploader{}
	rec := &fakeRecorder{}
	p := New(src, testMapping(t), up, rec, Config{Mode: model.ModeDelta})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, store.FetchOptions{Mode: model.ModeDelta}, src.gotOpts)
	assert.Equal(t, 3, summary.RowsFetched)
	assert.Equal(t, 2, summary.Counts.Emails)
	assert.Equal(t, 1, summary.Counts.Phones)
	assert.Equal(t, 2, summary.Counts.RowsWithID)

	assert.Equal(t, []string{"ACME_ALL", "ACME_TIRE", "ZENITH_ALL"}, up.uploaded)
	require.Len(t, summary.Segments, 3)
	assert.True(t, summary.Succeeded())

	// Every outcome was tracked under the summary's run ID.
	assert.Len(t, rec.results, 3)
	assert.Equal(t, map[string]bool{summary.RunID: true}, rec.runIDs)
}

func TestRunFetchErrorIsFatal(t *testing.T) {
	src := &fakeSource{err: assert.AnError}
	p := New(src, testMapping(t), &fakeUploader{}, &fakeRecorder{}, Config{})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch customers")
}

func TestRunSegmentFailureDoesNotStopSiblings(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	up := &fakeUploader{failKeys: map[string]bool{"ACME_ALL": true}}
	rec := &fakeRecorder{}
	p := New(src, testMapping(t), up, rec, Config{})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Segments, 3)
	assert.False(t, summary.Succeeded())
	assert.Equal(t, model.JobStatusFailed, summary.Segments[0].Status)
	assert.Equal(t, model.JobStatusSuccess, summary.Segments[1].Status)
	assert.Equal(t, model.JobStatusSuccess, summary.Segments[2].Status)
	assert.Len(t, rec.results, 3)
}

func TestRunDryRunSkipsUpload(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	up := &fakeUploader{}
	rec := &fakeRecorder{}
	p := New(src, testMapping(t), up, rec, Config{DryRun: true})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, up.uploaded)
	assert.Empty(t, rec.results)
	assert.Empty(t, summary.Segments)
	assert.True(t, summary.DryRun)
	assert.Equal(t, 2, summary.Counts.RowsWithID)
}

func TestRunBrandFilter(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	up := &fakeUploader{}
	p := New(src, testMapping(t), up, &fakeRecorder{}, Config{Brand: "ZENITH"})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ZENITH", src.gotOpts.Brand)
	assert.Equal(t, []string{"ZENITH_ALL"}, up.uploaded)
	require.Len(t, summary.Segments, 1)
}

func TestRunSegmentFilter(t *testing.T) {
	src := &fakeSource{records: testRecords()}
	up := &fakeUploader{}
	p := New(src, testMapping(t), up, &fakeRecorder{}, Config{Segment: model.SegmentTire})

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME_TIRE"}, up.uploaded)
}

func TestRunFullModePassedToSource(t *testing.T) {
	src := &fakeSource{}
	p := New(src, testMapping(t), &fakeUploader{}, &fakeRecorder{}, Config{Mode: model.ModeFull})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ModeFull, src.gotOpts.Mode)
	assert.Zero(t, summary.RowsFetched)
	assert.True(t, summary.Succeeded())
}
