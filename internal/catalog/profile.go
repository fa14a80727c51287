package catalog

import (
	"strings"

	"sitecheck-backend/internal/models"
)

// RecordBuilder turns one completed day of a draft into an inspection record
type RecordBuilder func(draft *models.WeeklyDraft, day models.DayEntry, who models.Identity) models.InspectionRecord

// Profile carries everything that differs between inspection kinds
type Profile struct {
	Kind           models.InspectionKind `json:"kind"`
	Title          string                `json:"title"`
	Binary         bool                  `json:"binary"`
	RequiredHeader []string              `json:"required_header,omitempty"`
	DayFields      []string              `json:"day_fields"`
	Builder        RecordBuilder         `json:"-"`
}

var profiles = map[models.InspectionKind]Profile{
	models.KindPlant: {
		Kind:      models.KindPlant,
		Title:     "Plant Pre-Use Inspection",
		DayFields: []string{"hours_reading", "comments"},
	},
	models.KindVehicle: {
		Kind:           models.KindVehicle,
		Title:          "Vehicle Daily Check",
		RequiredHeader: []string{"registration"},
		DayFields:      []string{"mileage", "comments"},
		Builder:        buildVehicleRecord,
	},
	models.KindGreasing: {
		Kind:      models.KindGreasing,
		Title:     "Greasing Schedule",
		Binary:    true,
		DayFields: []string{"greasing_duration", "comments"},
	},
	models.KindQuickHitch: {
		Kind:           models.KindQuickHitch,
		Title:          "Quick Hitch Check",
		Binary:         true,
		RequiredHeader: []string{"hitch_serial"},
		DayFields:      []string{"comments"},
	},
	models.KindBucketChange: {
		Kind:      models.KindBucketChange,
		Title:     "Bucket Change Check",
		Binary:    true,
		DayFields: []string{"bucket_type", "changes_count", "comments"},
	},
}

// ProfileFor returns the profile for kind. Builder is always set.
func ProfileFor(kind models.InspectionKind) (Profile, bool) {
	p, ok := profiles[kind]
	if !ok {
		return Profile{}, false
	}
	if p.Builder == nil {
		p.Builder = BuildRecord
	}
	return p, true
}

// Statuses lists the answers a checklist of this kind accepts
func (p Profile) Statuses() []models.CheckStatus {
	if p.Binary {
		return models.BinaryStatuses
	}
	return models.GradedStatuses
}

// AllowsStatus reports whether s is a valid answer for this kind
func (p Profile) AllowsStatus(s models.CheckStatus) bool {
	for _, st := range p.Statuses() {
		if st == s {
			return true
		}
	}
	return false
}

// AllowsDayField reports whether key is a supplemental field of this kind
func (p Profile) AllowsDayField(key string) bool {
	for _, f := range p.DayFields {
		if f == key {
			return true
		}
	}
	return false
}

// BuildRecord is the shared record builder. Required header fields are
// copied into the record's fields so reports see them per day. CreatedAt
// is left for the submitter to stamp.
func BuildRecord(draft *models.WeeklyDraft, day models.DayEntry, who models.Identity) models.InspectionRecord {
	day = day.Clone()
	fields := day.Fields
	for k, v := range draft.Header.Extra {
		if _, set := fields[k]; !set && v != "" {
			fields[k] = v
		}
	}
	return models.InspectionRecord{
		Kind:          draft.Kind,
		OwnerID:       who.UserID,
		CompanyID:     who.CompanyID,
		UserName:      who.UserName,
		EquipmentID:   draft.Header.EquipmentID,
		EquipmentText: draft.Header.EquipmentText,
		ProjectID:     draft.Header.ProjectID,
		Date:          day.Date,
		Day:           day.Day,
		Checks:        day.Checks,
		Fields:        fields,
		DefectCount:   models.CountDefects(day.Checks),
	}
}

func buildVehicleRecord(draft *models.WeeklyDraft, day models.DayEntry, who models.Identity) models.InspectionRecord {
	rec := BuildRecord(draft, day, who)
	if reg, ok := rec.Fields["registration"]; ok {
		rec.Fields["registration"] = strings.ToUpper(strings.ReplaceAll(reg, " ", ""))
	}
	if miles, ok := rec.Fields["mileage"]; ok {
		rec.Fields["mileage"] = strings.NewReplacer(",", "", " ", "").Replace(miles)
	}
	return rec
}
