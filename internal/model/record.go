package model

import "time"

// UploadMode selects which rows the source query returns.
type UploadMode string

const (
	// ModeDelta fetches only rows changed since the last successful run.
	ModeDelta UploadMode = "delta"
	// ModeFull fetches every eligible row.
	ModeFull UploadMode = "full"
)

// SegmentFlags carries the precomputed eligibility booleans from the source
// query. The classifier maps these to segment names without re-deriving any
// business rules.
type SegmentFlags struct {
	Tire        bool `json:"tire"`
	Service     bool `json:"service"`
	Lapsed      bool `json:"lapsed"`
	Repeat      bool `json:"repeat"`
	NonCustomer bool `json:"non_customer"`
}

// CustomerRecord is one row from the source query, decoded once at the input
// boundary. String fields are optional; an absent field is the empty string.
// Records are immutable after decode.
type CustomerRecord struct {
	CustomerNo  string       `json:"customer_no"`
	FirstName   string       `json:"first_name,omitempty"`
	LastName    string       `json:"last_name,omitempty"`
	ContactRef  string       `json:"contact_ref,omitempty"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	ZipCode     string       `json:"zip_code,omitempty"`
	StateCode   string       `json:"state_code,omitempty"`
	Brand       string       `json:"brand,omitempty"`
	Flags       SegmentFlags `json:"flags"`
	VisitCount  int          `json:"visit_count,omitempty"`
	LastVisitAt time.Time    `json:"last_visit_at,omitempty"`
}
