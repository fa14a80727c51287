package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sitecheck-backend/internal/models"
)

func TestDefectAlert(t *testing.T) {
	rec := models.InspectionRecord{
		ID:          "rec-1",
		Kind:        models.KindPlant,
		UserName:    "Sam Site",
		EquipmentID: "EX-042",
		Date:        "2026-10-14",
		DefectCount: 2,
	}

	title, body, data := DefectAlert(rec)
	assert.Equal(t, "Defects reported", title)
	assert.Equal(t, "EX-042: 2 item(s) need action on 2026-10-14 (Sam Site)", body)
	assert.Equal(t, "inspection_defects", data["type"])
	assert.Equal(t, "rec-1", data["record_id"])
	assert.Equal(t, "plant", data["kind"])
	assert.Equal(t, "2", data["defect_count"])

	rec.EquipmentID = ""
	rec.EquipmentText = "Blue dumper"
	_, body, _ = DefectAlert(rec)
	assert.Contains(t, body, "Blue dumper:")
}
