// Package uploader drives the per-segment asynchronous job lifecycle against
// the ads platform: create job, submit operations in bounded batches with
// retry, start execution, poll to a terminal status.
package uploader

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/audience-sync/internal/model"
	"github.com/sells-group/audience-sync/internal/resilience"
	"github.com/sells-group/audience-sync/pkg/googleads"
)

// Config tunes the upload engine.
type Config struct {
	// BatchSize is the maximum operations per AddOperations call.
	// Default: 2500.
	BatchSize int
	// MaxAttempts bounds submission attempts per batch. Default: 3.
	MaxAttempts int
	// RetryBaseDelay is the backoff base for retryable batch failures.
	// Default: 2s.
	RetryBaseDelay time.Duration
	// InterBatchDelay is the rate-limit spacing applied after each
	// successful batch. Default: 500ms.
	InterBatchDelay time.Duration
	// PollInterval is the delay between job status checks. Default: 10s.
	PollInterval time.Duration
	// PollTimeout bounds total polling time before the job is declared
	// TIMED_OUT. Default: 300s.
	PollTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 2500
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 2 * time.Second
	}
	if c.InterBatchDelay <= 0 {
		c.InterBatchDelay = 500 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 300 * time.Second
	}
	return c
}

// Engine uploads one segment at a time. It holds no state between segments.
type Engine struct {
	client googleads.Client
	cfg    Config
	clock  Clock
}

// New creates an Engine. A nil clock means wall-clock time.
func New(client googleads.Client, cfg Config, clock Clock) *Engine {
	if clock == nil {
		clock = RealClock()
	}
	return &Engine{client: client, cfg: cfg.withDefaults(), clock: clock}
}

// UploadSegment runs the full job lifecycle for one non-empty segment and
// returns its outcome. Errors never propagate: every failure mode is folded
// into the SegmentResult so sibling segments keep going.
func (e *Engine) UploadSegment(ctx context.Context, seg *model.Segment) model.SegmentResult {
	log := zap.L().With(
		zap.String("segment", seg.Key.String()),
		zap.String("list_id", seg.ListID),
	)
	start := e.clock.Now()

	result := model.SegmentResult{
		Key:           seg.Key,
		ListID:        seg.ListID,
		RowsAttempted: len(seg.Operations),
	}
	fail := func(status model.JobStatus, err error) model.SegmentResult {
		result.Status = status
		if err != nil {
			result.Error = err.Error()
		}
		result.Duration = e.clock.Now().Sub(start)
		return result
	}

	// CREATED
	jobResource, err := e.client.CreateJob(ctx, seg.ListID)
	if err != nil {
		log.Error("uploader: job creation failed", zap.Error(err))
		return fail(model.JobStatusFailed, err)
	}
	result.JobResource = jobResource
	log.Info("uploader: job created", zap.String("job", jobResource), zap.String("status", string(model.JobStatusCreated)))

	// OPERATIONS_ADDED
	if err := e.addOperations(ctx, log, jobResource, seg.Operations); err != nil {
		log.Error("uploader: batch submission aborted", zap.Error(err))
		return fail(model.JobStatusFailed, err)
	}
	log.Info("uploader: all operations added", zap.String("status", string(model.JobStatusOperationsAdded)))

	// RUNNING
	if err := e.client.RunJob(ctx, jobResource); err != nil {
		log.Error("uploader: job start failed", zap.Error(err))
		return fail(model.JobStatusFailed, err)
	}
	log.Info("uploader: job started", zap.String("status", string(model.JobStatusRunning)))

	// Poll to terminal.
	status, err := e.pollUntilTerminal(ctx, log, jobResource)
	if err != nil {
		return fail(status, err)
	}
	if status == model.JobStatusSuccess {
		result.RowsConfirmed = result.RowsAttempted
	}
	result.Status = status
	result.Duration = e.clock.Now().Sub(start)
	log.Info("uploader: segment finished",
		zap.String("status", string(status)),
		zap.Int("rows_attempted", result.RowsAttempted),
		zap.Int("rows_confirmed", result.RowsConfirmed),
		zap.Duration("duration", result.Duration),
	)
	return result
}

// addOperations submits operations in fixed-size batches. Retryable errors
// are retried with exponential backoff; exhausting attempts or hitting a
// terminal error aborts the remaining batches.
func (e *Engine) addOperations(ctx context.Context, log *zap.Logger, jobResource string, ops []*model.Operation) error {
	total := (len(ops) + e.cfg.BatchSize - 1) / e.cfg.BatchSize

	retryCfg := resilience.RetryConfig{
		MaxAttempts: e.cfg.MaxAttempts,
		BaseDelay:   e.cfg.RetryBaseDelay,
		ShouldRetry: retryableBatchError,
		Sleep:       e.clock.Sleep,
	}

	for i := 0; i < len(ops); i += e.cfg.BatchSize {
		end := min(i+e.cfg.BatchSize, len(ops))
		batch := toWireOperations(ops[i:end])
		batchNum := i/e.cfg.BatchSize + 1

		var attempts int
		retryCfg.OnRetry = func(attempt int, err error) {
			log.Warn("uploader: retrying batch",
				zap.Int("batch", batchNum),
				zap.Int("batches_total", total),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}

		err := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
			attempts++
			return e.client.AddOperations(ctx, jobResource, batch)
		})
		if err != nil {
			return err
		}
		log.Info("uploader: batch added",
			zap.Int("batch", batchNum),
			zap.Int("batches_total", total),
			zap.Int("operations", len(batch)),
			zap.Int("attempts", attempts),
		)

		// Rate-limit spacing between batches.
		if end < len(ops) {
			if err := e.clock.Sleep(ctx, e.cfg.InterBatchDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// pollUntilTerminal checks job status on a fixed interval until the remote
// side reports SUCCESS or FAILED, the poll window closes, or ctx is
// cancelled.
func (e *Engine) pollUntilTerminal(ctx context.Context, log *zap.Logger, jobResource string) (model.JobStatus, error) {
	deadline := e.clock.Now().Add(e.cfg.PollTimeout)

	for {
		status, err := e.client.GetJobStatus(ctx, jobResource)
		if err != nil {
			return model.JobStatusFailed, err
		}
		log.Info("uploader: poll", zap.String("job_status", string(status)))

		switch status {
		case googleads.JobSuccess:
			return model.JobStatusSuccess, nil
		case googleads.JobFailed:
			return model.JobStatusFailed, errors.New("job reported FAILED")
		}

		if !e.clock.Now().Add(e.cfg.PollInterval).Before(deadline) {
			log.Warn("uploader: poll window exhausted", zap.Duration("timeout", e.cfg.PollTimeout))
			return model.JobStatusTimedOut, errors.New("job polling timed out")
		}
		if err := e.clock.Sleep(ctx, e.cfg.PollInterval); err != nil {
			return model.JobStatusTimedOut, err
		}
	}
}

// retryableBatchError classifies batch submission failures. APIError carries
// its own classification; anything else falls back to the generic check.
func retryableBatchError(err error) bool {
	var apiErr *googleads.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return resilience.IsRetryable(err)
}

// toWireOperations converts model operations to the platform wire shape.
func toWireOperations(ops []*model.Operation) []googleads.Operation {
	out := make([]googleads.Operation, 0, len(ops))
	for _, op := range ops {
		ids := op.Identifiers()
		wire := make([]googleads.UserIdentifier, 0, len(ids))
		for _, id := range ids {
			w := googleads.UserIdentifier{
				HashedEmail:       id.HashedEmail,
				HashedPhoneNumber: id.HashedPhone,
			}
			if id.Address != nil {
				w.AddressInfo = &googleads.AddressInfo{
					HashedFirstName: id.Address.HashedFirstName,
					HashedLastName:  id.Address.HashedLastName,
					CountryCode:     id.Address.CountryCode,
					PostalCode:      id.Address.PostalCode,
				}
			}
			wire = append(wire, w)
		}
		out = append(out, googleads.Operation{Create: &googleads.UserData{UserIdentifiers: wire}})
	}
	return out
}
