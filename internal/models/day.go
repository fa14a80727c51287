package models

import (
	"fmt"
	"strings"
	"time"
)

// DayCode is one of the seven weekday tokens of an inspection week
type DayCode string

const (
	Monday    DayCode = "mon"
	Tuesday   DayCode = "tue"
	Wednesday DayCode = "wed"
	Thursday  DayCode = "thu"
	Friday    DayCode = "fri"
	Saturday  DayCode = "sat"
	Sunday    DayCode = "sun"
)

// AllDays in week order (Mon -> Sun)
var AllDays = [7]DayCode{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Index returns the position of the day in the week, or -1 for an unknown token
func (d DayCode) Index() int {
	for i, day := range AllDays {
		if day == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of the seven weekday tokens
func (d DayCode) Valid() bool {
	return d.Index() >= 0
}

// ParseDayCode accepts the token case-insensitively
func ParseDayCode(s string) (DayCode, error) {
	d := DayCode(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown day code: %q", s)
	}
	return d, nil
}

// DayCodeFor maps a calendar date to its weekday token
func DayCodeFor(t time.Time) DayCode {
	// time.Weekday starts at Sunday
	return AllDays[(int(t.Weekday())+6)%7]
}

// WeekStartFor returns midnight of the Monday on or before t
func WeekStartFor(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -DayCodeFor(t).Index())
}

// DayState is the lifecycle of one day inside a weekly draft
type DayState string

const (
	DayStateEmpty     DayState = "empty"     // nothing entered
	DayStateEditing   DayState = "editing"   // changed since the last save
	DayStateSaved     DayState = "saved"     // persisted with the draft
	DayStateSubmitted DayState = "submitted" // converted into an inspection record
)

// DayEntry is the checklist state for one weekday
type DayEntry struct {
	Day    DayCode           `json:"day"`
	Date   string            `json:"date,omitempty"` // YYYY-MM-DD, assigned on first save
	State  DayState          `json:"state"`
	Checks []CheckRecord     `json:"checks"`
	Fields map[string]string `json:"fields,omitempty"`
}

// DateLayout is the calendar date format used for days and records
const DateLayout = "2006-01-02"

// NewDayEntry returns an empty day
func NewDayEntry(day DayCode) DayEntry {
	return DayEntry{
		Day:    day,
		State:  DayStateEmpty,
		Checks: []CheckRecord{},
		Fields: map[string]string{},
	}
}

// Completed is true iff the day has at least one check record
func (d DayEntry) Completed() bool {
	return len(d.Checks) > 0
}

// HasContent reports whether anything at all was entered for the day
func (d DayEntry) HasContent() bool {
	if len(d.Checks) > 0 {
		return true
	}
	for _, v := range d.Fields {
		if v != "" {
			return true
		}
	}
	return false
}

// Check returns the record for itemID and its index, or -1
func (d DayEntry) Check(itemID string) (CheckRecord, int) {
	for i, c := range d.Checks {
		if c.ItemID == itemID {
			return c, i
		}
	}
	return CheckRecord{}, -1
}

// Clone returns a deep copy
func (d DayEntry) Clone() DayEntry {
	out := d
	out.Checks = make([]CheckRecord, len(d.Checks))
	for i, c := range d.Checks {
		out.Checks[i] = c.Clone()
	}
	out.Fields = make(map[string]string, len(d.Fields))
	for k, v := range d.Fields {
		out.Fields[k] = v
	}
	return out
}
