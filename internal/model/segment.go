package model

import "fmt"

// BrandCode identifies a brand in the audience mapping. Codes are
// case-normalized to the form they appear with in configuration.
type BrandCode string

// SegmentName identifies one audience classification within a brand.
type SegmentName string

const (
	SegmentAll      SegmentName = "ALL"
	SegmentTire     SegmentName = "TIRE"
	SegmentService  SegmentName = "SERVICE"
	SegmentLapsed   SegmentName = "LAPSED"
	SegmentRepeat   SegmentName = "REPEAT"
	SegmentProspect SegmentName = "PROSPECT"
)

// AllSegmentNames lists every segment name in deterministic upload order.
var AllSegmentNames = []SegmentName{
	SegmentAll,
	SegmentTire,
	SegmentService,
	SegmentLapsed,
	SegmentRepeat,
	SegmentProspect,
}

// ListKey is the composite key addressing one target audience list.
type ListKey struct {
	Brand   BrandCode   `json:"brand"`
	Segment SegmentName `json:"segment"`
}

func (k ListKey) String() string {
	return fmt.Sprintf("%s_%s", k.Brand, k.Segment)
}

// Segment is one named audience partition: a target list handle plus the
// ordered, append-only operations routed into it during a run.
type Segment struct {
	Key        ListKey
	ListID     string
	Operations []*Operation
}

// Append adds an operation to the segment. The operation is shared, not
// copied; the same *Operation may live in several segments.
func (s *Segment) Append(op *Operation) {
	if op == nil {
		return
	}
	s.Operations = append(s.Operations, op)
}

// Empty reports whether the segment collected no operations this run.
func (s *Segment) Empty() bool {
	return len(s.Operations) == 0
}
