package models

import "time"

// InspectionRecord is the immutable result of one submitted day
type InspectionRecord struct {
	ID            string            `json:"id"`
	Kind          InspectionKind    `json:"kind"`
	OwnerID       string            `json:"owner_id"`
	CompanyID     string            `json:"company_id"`
	UserName      string            `json:"user_name"`
	EquipmentID   string            `json:"equipment_id,omitempty"`
	EquipmentText string            `json:"equipment_text,omitempty"`
	ProjectID     string            `json:"project_id,omitempty"`
	Date          string            `json:"date"` // YYYY-MM-DD
	Day           DayCode           `json:"day"`
	Checks        []CheckRecord     `json:"checks"`
	Fields        map[string]string `json:"fields,omitempty"`
	DefectCount   int               `json:"defect_count"`
	CreatedAt     int64             `json:"created_at"`
}

// RecordResponse is what report views receive
type RecordResponse struct {
	InspectionRecord
	CreatedAtIso string `json:"created_at_iso"`
	DateLabel    string `json:"date_label"`
}

// ToRecordResponse adds display formatting to a record
func (r *InspectionRecord) ToRecordResponse() RecordResponse {
	resp := RecordResponse{
		InspectionRecord: *r,
		CreatedAtIso:     time.Unix(r.CreatedAt, 0).UTC().Format(time.RFC3339),
		DateLabel:        r.Date,
	}
	if t, err := time.Parse(DateLayout, r.Date); err == nil {
		resp.DateLabel = t.Format("Mon, Jan 02 2006")
	}
	return resp
}

// RecordFilter narrows the report read path. Zero values mean "any".
type RecordFilter struct {
	CompanyID   string
	OwnerID     string
	Kind        InspectionKind
	EquipmentID string
	From        string // inclusive YYYY-MM-DD
	To          string // inclusive YYYY-MM-DD
	Limit       int
}
