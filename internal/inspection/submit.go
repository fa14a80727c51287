package inspection

import (
	"context"
	"log"

	"sitecheck-backend/internal/models"
)

// SubmitResult describes the records created by SubmitWeek
type SubmitResult struct {
	Created      int                       `json:"created"`
	Days         []models.DayCode          `json:"days"`
	RecordIDs    []string                  `json:"record_ids"`
	Records      []models.InspectionRecord `json:"-"`
	DraftDeleted bool                      `json:"draft_deleted"`
	Done         bool                      `json:"done"` // caller should leave the form
}

// SubmitWeek turns every completed, not yet submitted day into an
// inspection record, one backend call per day in Mon -> Sun order.
//
// Calls are sequential. The first failure stops the run and returns a
// *SubmitError naming the day; days already created stay committed and are
// marked submitted, so pressing submit again only sends the rest. The
// partial result is returned alongside the error.
//
// After a fully successful run the stored draft is deleted. When a run
// fails, or the delete fails, the submitted states are written back to the
// stored draft so resuming it later does not resend committed days.
func (c *Controller) SubmitWeek(ctx context.Context) (*SubmitResult, error) {
	c.flush()
	if err := c.validateHeader(); err != nil {
		return nil, err
	}
	c.draft.Header = c.header.Clone()

	var pending []int
	for i := range c.draft.Days {
		day := &c.draft.Days[i]
		if day.Completed() && day.State != models.DayStateSubmitted {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil, &ValidationError{Field: "days", Message: "no completed days to submit"}
	}

	log.Printf("📤 Submitting %d %s day(s) for %s", len(pending), c.profile.Kind, c.identity.UserID)

	result := &SubmitResult{}
	for _, i := range pending {
		day := &c.draft.Days[i]
		if day.Date == "" {
			day.Date = c.dateFor(&c.draft, day.Day)
		}

		rec := c.profile.Builder(&c.draft, *day, c.identity)
		rec.CreatedAt = c.clock().Unix()
		id, err := c.backend.CreateInspectionRecord(ctx, c.profile.Kind, rec)
		if err != nil {
			log.Printf("❌ Submitting %s (%s) failed after %d record(s): %v", day.Day, day.Date, result.Created, err)
			if result.Created > 0 {
				c.persistProgress(ctx)
			}
			return result, &SubmitError{
				Day:       day.Day,
				Submitted: append([]models.DayCode(nil), result.Days...),
				Err:       err,
			}
		}

		rec.ID = id
		day.State = models.DayStateSubmitted
		result.Created++
		result.Days = append(result.Days, day.Day)
		result.RecordIDs = append(result.RecordIDs, id)
		result.Records = append(result.Records, rec)
		log.Printf("   ✓ %s (%s) -> record %s", day.Day, day.Date, id)
	}

	result.Done = true
	if c.draft.ID != "" {
		if err := c.backend.DeleteDraft(ctx, c.draft.ID); err != nil {
			// The records are committed; a stale draft is only clutter
			log.Printf("⚠️  Submitted week but could not delete draft %s: %v", c.draft.ID, err)
			c.persistProgress(ctx)
		} else {
			result.DraftDeleted = true
			c.draft.ID = ""
		}
	}

	log.Printf("✅ Submitted %d %s record(s)", result.Created, c.profile.Kind)
	return result, nil
}

// persistProgress writes the submitted day states back to the stored
// draft. Failures are logged only; the records themselves are committed.
func (c *Controller) persistProgress(ctx context.Context) {
	if c.draft.ID == "" {
		return
	}
	stored := c.draft.Clone()
	stored.UpdatedAt = c.clock().Unix()
	if _, err := c.backend.UpsertDraft(ctx, stored); err != nil {
		log.Printf("⚠️  Could not record submitted days on draft %s: %v", stored.ID, err)
		return
	}
	log.Printf("💾 Recorded submitted days on draft %s", stored.ID)
}
