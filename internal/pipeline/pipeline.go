// Package pipeline coordinates a full audience sync run: fetch, transform,
// route, upload, track.
package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/audience-sync/internal/classify"
	"github.com/sells-group/audience-sync/internal/model"
	"github.com/sells-group/audience-sync/internal/normalize"
	"github.com/sells-group/audience-sync/internal/route"
	"github.com/sells-group/audience-sync/internal/store"
)

// Uploader runs the job lifecycle for one segment.
type Uploader interface {
	UploadSegment(ctx context.Context, seg *model.Segment) model.SegmentResult
}

// Recorder persists one segment outcome. Implementations are best-effort.
type Recorder interface {
	Record(ctx context.Context, runID string, mode model.UploadMode, res model.SegmentResult)
}

// Config selects the scope and parallelism of a run.
type Config struct {
	// Mode selects the delta or full row set.
	Mode model.UploadMode
	// Brand restricts the run to one brand; empty runs all brands.
	Brand model.BrandCode
	// Segment restricts the run to one segment name; empty runs all.
	Segment model.SegmentName
	// DryRun stops after routing and reports what would be uploaded.
	DryRun bool
	// Region is the phone/address normalization region.
	Region string
	// Workers bounds the transform fan-out. Default: GOMAXPROCS.
	Workers int
	// SegmentConcurrency bounds simultaneous segment uploads. Default: 1,
	// keeping uploads strictly ordered.
	SegmentConcurrency int
	// UnmappedPolicy and DefaultBrand control routing of rows whose brand
	// label has no mapping.
	UnmappedPolicy route.UnmappedBrandPolicy
	DefaultBrand   model.BrandCode
}

// Pipeline wires the stages together. A single Pipeline can serve repeated
// Run calls; all per-run state lives in the Run invocation.
type Pipeline struct {
	source   store.Source
	mapping  route.Mapping
	uploader Uploader
	recorder Recorder
	cfg      Config
}

// New creates a Pipeline over a validated mapping.
func New(source store.Source, mapping route.Mapping, up Uploader, rec Recorder, cfg Config) *Pipeline {
	if cfg.Mode == "" {
		cfg.Mode = model.ModeDelta
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.SegmentConcurrency <= 0 {
		cfg.SegmentConcurrency = 1
	}
	return &Pipeline{source: source, mapping: mapping, uploader: up, recorder: rec, cfg: cfg}
}

// Run executes one sync. A fetch failure is fatal; segment upload failures
// are not, and are reported through the summary instead.
func (p *Pipeline) Run(ctx context.Context) (*model.RunSummary, error) {
	summary := &model.RunSummary{
		RunID:       uuid.NewString(),
		Mode:        p.cfg.Mode,
		BrandFilter: p.cfg.Brand,
		SegFilter:   p.cfg.Segment,
		DryRun:      p.cfg.DryRun,
		StartedAt:   time.Now().UTC(),
	}
	defer func() { summary.FinishedAt = time.Now().UTC() }()

	log := zap.L().With(
		zap.String("run_id", summary.RunID),
		zap.String("mode", string(p.cfg.Mode)),
	)

	records, err := p.source.FetchCustomers(ctx, store.FetchOptions{
		Mode:  p.cfg.Mode,
		Brand: string(p.cfg.Brand),
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: fetch customers")
	}
	summary.RowsFetched = len(records)
	log.Info("pipeline: fetched customer rows", zap.Int("rows", len(records)))

	router := route.NewRouter(p.mapping, route.Options{
		BrandFilter:    p.cfg.Brand,
		SegmentFilter:  p.cfg.Segment,
		UnmappedPolicy: p.cfg.UnmappedPolicy,
		DefaultBrand:   p.cfg.DefaultBrand,
	})

	counts, err := p.transform(ctx, records, router)
	if err != nil {
		return nil, err
	}
	summary.Counts = counts

	segments := router.Segments()
	log.Info("pipeline: routing complete",
		zap.Int("rows_with_identifiers", counts.RowsWithID),
		zap.Int("rows_dropped_unmapped", router.Dropped()),
		zap.Int("segments", len(segments)),
	)

	if p.cfg.DryRun {
		for _, seg := range segments {
			log.Info("pipeline: dry run, segment skipped",
				zap.String("segment", seg.Key.String()),
				zap.String("list_id", seg.ListID),
				zap.Int("operations", len(seg.Operations)),
			)
		}
		return summary, nil
	}

	summary.Segments = p.upload(ctx, log, summary.RunID, segments)
	return summary, nil
}

// transform fans records out to workers that build identifiers, classify, and
// route. The router handles its own locking.
func (p *Pipeline) transform(ctx context.Context, records []model.CustomerRecord, router *route.Router) (model.IdentifierCounts, error) {
	norm := normalize.New(p.cfg.Region)

	var mu sync.Mutex
	var counts model.IdentifierCounts

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for _, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ids, c := norm.BuildIdentifiers(rec)
			names := classify.Segments(rec, len(ids))
			router.Route(rec, model.NewOperation(ids), names)

			mu.Lock()
			if c.Email {
				counts.Emails++
			}
			if c.Phone {
				counts.Phones++
			}
			if c.Address {
				counts.Addresses++
			}
			if len(ids) > 0 {
				counts.RowsWithID++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return counts, eris.Wrap(err, "pipeline: transform")
	}
	return counts, nil
}

// upload runs each populated segment through the uploader, recording every
// outcome. Results keep the deterministic segment order regardless of
// concurrency.
func (p *Pipeline) upload(ctx context.Context, log *zap.Logger, runID string, segments []*model.Segment) []model.SegmentResult {
	results := make([]model.SegmentResult, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.SegmentConcurrency)
	for i, seg := range segments {
		g.Go(func() error {
			res := p.uploader.UploadSegment(gctx, seg)
			results[i] = res
			if p.recorder != nil {
				p.recorder.Record(gctx, runID, p.cfg.Mode, res)
			}
			if !res.Succeeded() {
				log.Warn("pipeline: segment upload failed",
					zap.String("segment", res.Key.String()),
					zap.String("status", string(res.Status)),
					zap.String("error", res.Error),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
