package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecheck-backend/internal/models"
)

func TestEveryKindHasItemsAndProfile(t *testing.T) {
	for _, kind := range models.AllKinds {
		items := Items(kind)
		require.NotEmpty(t, items, kind)

		seen := map[string]bool{}
		for _, it := range items {
			assert.False(t, seen[it.ID], "duplicate item %s in %s", it.ID, kind)
			seen[it.ID] = true
			assert.NotEmpty(t, it.Category)
		}

		p, ok := ProfileFor(kind)
		require.True(t, ok, kind)
		assert.Equal(t, kind, p.Kind)
		assert.NotNil(t, p.Builder)
		assert.Contains(t, p.DayFields, "comments")
	}
}

func TestGroupsKeepDeclarationOrder(t *testing.T) {
	groups := Groups(models.KindPlant)
	require.Len(t, groups, 5)
	assert.Equal(t, "Engine", groups[0].Category)
	assert.Equal(t, "Structure", groups[4].Category)
	assert.Equal(t, "engine_oil", groups[0].Items[0].ID)

	var flat []CheckItemDefinition
	for _, g := range groups {
		flat = append(flat, g.Items...)
	}
	assert.Equal(t, Items(models.KindPlant), flat)
}

func TestUnknownKind(t *testing.T) {
	assert.Nil(t, Items("crane"))
	assert.Nil(t, Groups("crane"))
	_, ok := ProfileFor("crane")
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	it, ok := Lookup(models.KindQuickHitch, "tug_test")
	require.True(t, ok)
	assert.True(t, it.DailyRecheck)
	assert.Equal(t, "Operation", it.Category)

	_, ok = Lookup(models.KindGreasing, "tug_test")
	assert.False(t, ok)
}

func TestItemsReturnsCopy(t *testing.T) {
	items := Items(models.KindGreasing)
	items[0].Name = "changed"
	assert.NotEqual(t, "changed", Items(models.KindGreasing)[0].Name)
}

func TestProfileStatuses(t *testing.T) {
	plant, _ := ProfileFor(models.KindPlant)
	assert.True(t, plant.AllowsStatus(models.StatusImmediateAttention))
	assert.False(t, plant.AllowsStatus(models.StatusPass))

	bucket, _ := ProfileFor(models.KindBucketChange)
	assert.True(t, bucket.Binary)
	assert.True(t, bucket.AllowsStatus(models.StatusFail))
	assert.True(t, bucket.AllowsDayField("changes_count"))
	assert.False(t, bucket.AllowsDayField("mileage"))
}

func TestBuildRecordCopiesHeaderExtras(t *testing.T) {
	draft := models.NewWeeklyDraft(models.KindQuickHitch, models.Identity{UserID: "u"}, mustMonday(t))
	draft.Header.EquipmentID = "EX-9"
	draft.Header.Extra["hitch_serial"] = "QH-55"
	day := draft.Days[0].Clone()
	day.Date = "2026-10-12"
	day.Checks = append(day.Checks, models.CheckRecord{ItemID: "tug_test", Status: models.StatusFail})

	rec := BuildRecord(&draft, day, models.Identity{UserID: "u", CompanyID: "c", UserName: "Una"})
	assert.Equal(t, "QH-55", rec.Fields["hitch_serial"])
	assert.Equal(t, "EX-9", rec.EquipmentID)
	assert.Equal(t, 1, rec.DefectCount)
	assert.Equal(t, "Una", rec.UserName)
	assert.Equal(t, models.Monday, rec.Day)
}

func mustMonday(t *testing.T) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, "2026-10-12")
	require.NoError(t, err)
	return d
}
