package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/audience-sync/internal/model"
)

func TestSegments_NoIdentifiersExcludedEverywhere(t *testing.T) {
	rec := model.CustomerRecord{
		Flags: model.SegmentFlags{Tire: true, Repeat: true},
	}
	assert.Nil(t, Segments(rec, 0))
}

func TestSegments_AllAlwaysIncluded(t *testing.T) {
	rec := model.CustomerRecord{}
	got := Segments(rec, 1)
	assert.Equal(t, []model.SegmentName{model.SegmentAll}, got)
}

func TestSegments_RepeatIncludesAllAndRepeat(t *testing.T) {
	rec := model.CustomerRecord{
		Flags: model.SegmentFlags{Repeat: true},
	}
	got := Segments(rec, 2)
	assert.Contains(t, got, model.SegmentAll)
	assert.Contains(t, got, model.SegmentRepeat)
	assert.Len(t, got, 2)
}

func TestSegments_EveryFlag(t *testing.T) {
	rec := model.CustomerRecord{
		Flags: model.SegmentFlags{
			Tire:        true,
			Service:     true,
			Lapsed:      true,
			Repeat:      true,
			NonCustomer: true,
		},
	}
	got := Segments(rec, 3)
	assert.Equal(t, []model.SegmentName{
		model.SegmentAll,
		model.SegmentTire,
		model.SegmentService,
		model.SegmentLapsed,
		model.SegmentRepeat,
		model.SegmentProspect,
	}, got)
}
