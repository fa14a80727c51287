package models

import "fmt"

// InspectionKind selects the item catalog and the record endpoint
type InspectionKind string

const (
	KindPlant        InspectionKind = "plant"
	KindVehicle      InspectionKind = "vehicle"
	KindGreasing     InspectionKind = "greasing"
	KindQuickHitch   InspectionKind = "quick_hitch"
	KindBucketChange InspectionKind = "bucket_change"
)

// AllKinds lists every inspection kind in display order
var AllKinds = []InspectionKind{KindPlant, KindVehicle, KindGreasing, KindQuickHitch, KindBucketChange}

// ParseInspectionKind validates a kind token from a request
func ParseInspectionKind(s string) (InspectionKind, error) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown inspection kind: %q", s)
}

// CheckStatus is the recorded answer for one check item
type CheckStatus string

const (
	// Graded checklists
	StatusSatisfactory       CheckStatus = "satisfactory"
	StatusRequiresAction     CheckStatus = "requires_action"
	StatusImmediateAttention CheckStatus = "immediate_attention"
	StatusNotApplicable      CheckStatus = "not_applicable"

	// Binary checklists
	StatusPass CheckStatus = "pass"
	StatusFail CheckStatus = "fail"
)

// GradedStatuses are valid for plant and vehicle style checklists
var GradedStatuses = []CheckStatus{StatusSatisfactory, StatusRequiresAction, StatusImmediateAttention, StatusNotApplicable}

// BinaryStatuses are valid for pass/fail checklists
var BinaryStatuses = []CheckStatus{StatusPass, StatusFail}

// NeedsAction reports whether the item's detail panel (notes + photos) is shown.
// Derived from the status only, never stored.
func (s CheckStatus) NeedsAction() bool {
	switch s {
	case StatusRequiresAction, StatusImmediateAttention, StatusFail:
		return true
	}
	return false
}

// CheckRecord is one item's answer for one day
type CheckRecord struct {
	ItemID string      `json:"item_id"`
	Status CheckStatus `json:"status"`
	Notes  string      `json:"notes,omitempty"`
	Photos []string    `json:"photos,omitempty"` // opaque media references
}

// Clone returns a deep copy
func (c CheckRecord) Clone() CheckRecord {
	out := c
	if c.Photos != nil {
		out.Photos = append([]string(nil), c.Photos...)
	}
	return out
}

// CountDefects returns how many records carry an action-required status
func CountDefects(checks []CheckRecord) int {
	n := 0
	for _, c := range checks {
		if c.Status.NeedsAction() {
			n++
		}
	}
	return n
}
