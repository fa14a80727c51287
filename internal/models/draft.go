package models

import "time"

// DraftHeader holds the week-level form fields
type DraftHeader struct {
	EquipmentID   string            `json:"equipment_id,omitempty"`
	EquipmentText string            `json:"equipment_text,omitempty"` // free-text equivalent of EquipmentID
	ProjectID     string            `json:"project_id,omitempty"`
	WeekStart     string            `json:"week_start"` // YYYY-MM-DD, always a Monday
	Extra         map[string]string `json:"extra,omitempty"`
}

// HasEquipment reports whether an equipment identity was selected or typed in
func (h DraftHeader) HasEquipment() bool {
	return h.EquipmentID != "" || h.EquipmentText != ""
}

// Clone returns a deep copy
func (h DraftHeader) Clone() DraftHeader {
	out := h
	out.Extra = make(map[string]string, len(h.Extra))
	for k, v := range h.Extra {
		out.Extra[k] = v
	}
	return out
}

// WeeklyDraft is a partially completed inspection week
type WeeklyDraft struct {
	ID        string         `json:"id,omitempty"`
	OwnerID   string         `json:"owner_id"`
	CompanyID string         `json:"company_id,omitempty"`
	Kind      InspectionKind `json:"kind"`
	Header    DraftHeader    `json:"header"`
	Days      [7]DayEntry    `json:"days"`
	CreatedAt int64          `json:"created_at,omitempty"`
	UpdatedAt int64          `json:"updated_at,omitempty"`
}

// NewWeeklyDraft creates a draft with seven empty days
func NewWeeklyDraft(kind InspectionKind, owner Identity, weekStart time.Time) WeeklyDraft {
	d := WeeklyDraft{
		OwnerID:   owner.UserID,
		CompanyID: owner.CompanyID,
		Kind:      kind,
		Header: DraftHeader{
			WeekStart: weekStart.Format(DateLayout),
			Extra:     map[string]string{},
		},
	}
	for i, day := range AllDays {
		d.Days[i] = NewDayEntry(day)
	}
	return d
}

// Day returns a pointer to the slot for code, or nil for an unknown token
func (w *WeeklyDraft) Day(code DayCode) *DayEntry {
	i := code.Index()
	if i < 0 {
		return nil
	}
	return &w.Days[i]
}

// CompletedDays lists completed days in week order
func (w WeeklyDraft) CompletedDays() []DayCode {
	var out []DayCode
	for _, d := range w.Days {
		if d.Completed() {
			out = append(out, d.Day)
		}
	}
	return out
}

// Clone returns a deep copy
func (w WeeklyDraft) Clone() WeeklyDraft {
	out := w
	out.Header = w.Header.Clone()
	for i := range w.Days {
		out.Days[i] = w.Days[i].Clone()
	}
	return out
}

// DraftSummary is the list view of a stored draft
type DraftSummary struct {
	ID            string         `json:"id" db:"id"`
	Kind          InspectionKind `json:"kind" db:"kind"`
	EquipmentID   string         `json:"equipment_id" db:"equipment_id"`
	EquipmentText string         `json:"equipment_text" db:"equipment_text"`
	WeekStart     string         `json:"week_start" db:"week_start"`
	UpdatedAt     int64          `json:"updated_at" db:"updated_at"`
}

// Identity is the signed-in user a draft or record is stamped with
type Identity struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	UserName  string `json:"user_name"`
	Role      string `json:"role,omitempty"`
}
