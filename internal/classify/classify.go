// Package classify maps precomputed record flags to segment names. The
// business rules behind each flag are evaluated upstream in the source query;
// this package only routes booleans to names.
package classify

import "github.com/sells-group/audience-sync/internal/model"

// Segments returns the segment names a record belongs to. A record that
// produced no identifiers belongs to nothing, not even ALL. Every record
// with at least one identifier lands in ALL plus any flag-driven segments.
func Segments(rec model.CustomerRecord, identifierCount int) []model.SegmentName {
	if identifierCount == 0 {
		return nil
	}

	names := []model.SegmentName{model.SegmentAll}
	if rec.Flags.Tire {
		names = append(names, model.SegmentTire)
	}
	if rec.Flags.Service {
		names = append(names, model.SegmentService)
	}
	if rec.Flags.Lapsed {
		names = append(names, model.SegmentLapsed)
	}
	if rec.Flags.Repeat {
		names = append(names, model.SegmentRepeat)
	}
	if rec.Flags.NonCustomer {
		names = append(names, model.SegmentProspect)
	}
	return names
}
