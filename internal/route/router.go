package route

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/audience-sync/internal/model"
)

// UnmappedBrandPolicy decides what happens to rows whose brand label has no
// audience mapping.
type UnmappedBrandPolicy string

const (
	// PolicyDrop discards the row (logged, not fatal).
	PolicyDrop UnmappedBrandPolicy = "drop"
	// PolicyDefault routes the row to a configured fallback brand.
	PolicyDefault UnmappedBrandPolicy = "default"
)

// Options tunes router behavior for partial and fallback runs.
type Options struct {
	// BrandFilter restricts routing to a single brand; empty means all brands.
	BrandFilter model.BrandCode
	// SegmentFilter restricts routing to a single segment; empty means all.
	SegmentFilter model.SegmentName
	// UnmappedPolicy selects drop-vs-fallback for unmapped brand labels.
	UnmappedPolicy UnmappedBrandPolicy
	// DefaultBrand is the fallback brand used by PolicyDefault.
	DefaultBrand model.BrandCode
}

// Router accumulates operations into per-(brand, segment) collections. Append
// is safe for concurrent use by transform workers.
type Router struct {
	mapping  Mapping
	opts     Options
	mu       sync.Mutex
	segments map[model.ListKey]*model.Segment
	dropped  int
}

// NewRouter creates a Router over a validated mapping. Filtered-out
// combinations are never populated.
func NewRouter(mapping Mapping, opts Options) *Router {
	if opts.UnmappedPolicy == "" {
		opts.UnmappedPolicy = PolicyDrop
	}
	return &Router{
		mapping:  mapping,
		opts:     opts,
		segments: make(map[model.ListKey]*model.Segment),
	}
}

// Route appends op to every matching segment for the record. One operation
// instance is shared across all segments it lands in.
func (r *Router) Route(rec model.CustomerRecord, op *model.Operation, names []model.SegmentName) {
	if op == nil || len(names) == 0 {
		return
	}

	brand, ok := r.resolveBrand(rec)
	if !ok {
		return
	}
	if r.opts.BrandFilter != "" && brand != r.opts.BrandFilter {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if r.opts.SegmentFilter != "" && name != r.opts.SegmentFilter {
			continue
		}
		key := model.ListKey{Brand: brand, Segment: name}
		listID, mapped := r.mapping[key]
		if !mapped {
			continue
		}
		seg, exists := r.segments[key]
		if !exists {
			seg = &model.Segment{Key: key, ListID: listID}
			r.segments[key] = seg
		}
		seg.Append(op)
	}
}

// resolveBrand applies the unmapped-brand policy to the row's brand label.
func (r *Router) resolveBrand(rec model.CustomerRecord) (model.BrandCode, bool) {
	brand := NormalizeBrand(rec.Brand)
	if brand != "" && r.mapping.HasBrand(brand) {
		return brand, true
	}

	if r.opts.UnmappedPolicy == PolicyDefault && r.opts.DefaultBrand != "" {
		return r.opts.DefaultBrand, true
	}

	r.mu.Lock()
	r.dropped++
	r.mu.Unlock()
	zap.L().Debug("route: dropping row with unmapped brand",
		zap.String("brand", rec.Brand),
		zap.String("customer_no", rec.CustomerNo),
	)
	return "", false
}

// Segments returns the populated segments in deterministic brand-then-segment
// order. Empty segments are never present.
func (r *Router) Segments() []*model.Segment {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Segment, 0, len(r.segments))
	for _, seg := range r.segments {
		out = append(out, seg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Brand != out[j].Key.Brand {
			return out[i].Key.Brand < out[j].Key.Brand
		}
		return segmentOrder(out[i].Key.Segment) < segmentOrder(out[j].Key.Segment)
	})
	return out
}

// Dropped returns how many rows were discarded for having no brand mapping.
func (r *Router) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
