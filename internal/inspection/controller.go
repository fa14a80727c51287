package inspection

import (
	"context"
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"
	"time"

	"sitecheck-backend/internal/catalog"
	"sitecheck-backend/internal/models"
)

// Controller mediates between the form's working fields and the WeeklyDraft
// for one editing session. It is not safe for concurrent use; callers
// serialise access (see internal/session).
type Controller struct {
	profile  catalog.Profile
	backend  Backend
	identity models.Identity
	clock    func() time.Time

	draft models.WeeklyDraft

	// Working copy of the form: header fields plus the active day
	header  models.DraftHeader
	working models.DayEntry
	active  models.DayCode
	dirty   bool
}

// Option configures a Controller
type Option func(*Controller)

// WithClock overrides time.Now, used for week start and the default day
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// NewController starts a fresh draft for the profile's kind with today's
// weekday active
func NewController(profile catalog.Profile, backend Backend, identity models.Identity, opts ...Option) *Controller {
	c := &Controller{
		profile:  profile,
		backend:  backend,
		identity: identity,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.profile.Builder == nil {
		c.profile.Builder = catalog.BuildRecord
	}
	c.reset()
	return c
}

func (c *Controller) reset() {
	now := c.clock()
	c.draft = models.NewWeeklyDraft(c.profile.Kind, c.identity, models.WeekStartFor(now))
	c.header = c.draft.Header.Clone()
	c.active = models.DayCodeFor(now)
	c.working = c.draft.Day(c.active).Clone()
	c.dirty = false
}

func (c *Controller) Kind() models.InspectionKind { return c.profile.Kind }
func (c *Controller) Profile() catalog.Profile     { return c.profile }
func (c *Controller) ActiveDay() models.DayCode    { return c.active }
func (c *Controller) DraftID() string              { return c.draft.ID }
func (c *Controller) Header() models.DraftHeader   { return c.header.Clone() }

// WorkingDay returns a copy of the active day as currently edited
func (c *Controller) WorkingDay() models.DayEntry {
	day := c.working.Clone()
	day.State = c.projectedState(*c.draft.Day(c.active))
	return day
}

// Snapshot returns the draft as it would look if the working fields were
// flushed now. The controller itself is not modified.
func (c *Controller) Snapshot() models.WeeklyDraft {
	snap := c.draft.Clone()
	snap.Header = c.header.Clone()
	slot := snap.Day(c.active)
	state := c.projectedState(*slot)
	copyDayFields(slot, c.working)
	slot.State = state
	return snap
}

// SelectDay makes day the active day. The day being left is flushed into
// the draft before the target is loaded, so its edits survive the switch.
func (c *Controller) SelectDay(day models.DayCode) {
	if !day.Valid() {
		return
	}
	c.flush()
	c.working = c.draft.Day(day).Clone()
	c.active = day
}

// flush writes the working day into its slot in the draft
func (c *Controller) flush() {
	slot := c.draft.Day(c.active)
	slot.State = c.projectedState(*slot)
	copyDayFields(slot, c.working)
	c.dirty = false
}

// projectedState is the slot's state once pending edits land in it
func (c *Controller) projectedState(slot models.DayEntry) models.DayState {
	if !c.dirty || slot.State == models.DayStateSubmitted {
		return slot.State
	}
	if c.working.HasContent() {
		return models.DayStateEditing
	}
	return models.DayStateEmpty
}

func copyDayFields(dst *models.DayEntry, src models.DayEntry) {
	clone := src.Clone()
	dst.Checks = clone.Checks
	dst.Fields = clone.Fields
}

// SetHeader replaces the header fields. WeekStart is normalised to the
// Monday of the given date; an empty WeekStart keeps the current one.
func (c *Controller) SetHeader(h models.DraftHeader) error {
	h = h.Clone()
	h.EquipmentID = strings.TrimSpace(h.EquipmentID)
	h.EquipmentText = strings.TrimSpace(h.EquipmentText)
	h.ProjectID = strings.TrimSpace(h.ProjectID)
	if h.WeekStart == "" {
		h.WeekStart = c.header.WeekStart
	} else {
		t, err := time.Parse(models.DateLayout, h.WeekStart)
		if err != nil {
			return &ValidationError{Field: "week_start", Message: "must be a YYYY-MM-DD date"}
		}
		h.WeekStart = models.WeekStartFor(t).Format(models.DateLayout)
	}
	c.header = h
	return nil
}

// SetHeaderField sets one kind-specific header value (e.g. registration)
func (c *Controller) SetHeaderField(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		delete(c.header.Extra, key)
		return
	}
	c.header.Extra[key] = value
}

func (c *Controller) editable() error {
	if c.draft.Day(c.active).State == models.DayStateSubmitted {
		return fmt.Errorf("%w: %s", ErrDayLocked, c.active)
	}
	return nil
}

func (c *Controller) knownItem(itemID string) error {
	if _, ok := catalog.Lookup(c.profile.Kind, itemID); !ok {
		return fmt.Errorf("%w: %q is not a %s check", ErrUnknownItem, itemID, c.profile.Kind)
	}
	return nil
}

// SetCheckStatus records status for itemID on the active day. An existing
// record keeps its notes and photos; they are never dropped when the
// status moves back to a non-action value.
func (c *Controller) SetCheckStatus(itemID string, status models.CheckStatus) error {
	if err := c.knownItem(itemID); err != nil {
		return err
	}
	if !c.profile.AllowsStatus(status) {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("%q is not valid for %s checks", status, c.profile.Kind)}
	}
	if err := c.editable(); err != nil {
		return err
	}

	if _, i := c.working.Check(itemID); i >= 0 {
		c.working.Checks[i].Status = status
	} else {
		c.working.Checks = append(c.working.Checks, models.CheckRecord{ItemID: itemID, Status: status})
	}
	c.dirty = true
	return nil
}

// DetailExpanded reports whether the notes/photo panel of itemID is shown
func (c *Controller) DetailExpanded(itemID string) bool {
	rec, i := c.working.Check(itemID)
	return i >= 0 && rec.Status.NeedsAction()
}

// record finds the active day's record for a detail edit
func (c *Controller) record(itemID string) (int, error) {
	if err := c.knownItem(itemID); err != nil {
		return -1, err
	}
	if err := c.editable(); err != nil {
		return -1, err
	}
	_, i := c.working.Check(itemID)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNoCheckRecord, itemID)
	}
	return i, nil
}

// SetCheckNotes replaces the free-text notes of an answered item
func (c *Controller) SetCheckNotes(itemID, notes string) error {
	i, err := c.record(itemID)
	if err != nil {
		return err
	}
	c.working.Checks[i].Notes = notes
	c.dirty = true
	return nil
}

// AddPhoto attaches an opaque media reference. Adding the same reference
// twice is a no-op.
func (c *Controller) AddPhoto(itemID, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return missingField("photo")
	}
	i, err := c.record(itemID)
	if err != nil {
		return err
	}
	for _, p := range c.working.Checks[i].Photos {
		if p == ref {
			return nil
		}
	}
	c.working.Checks[i].Photos = append(c.working.Checks[i].Photos, ref)
	c.dirty = true
	return nil
}

// RemovePhoto detaches ref from the item. Unknown references are ignored.
func (c *Controller) RemovePhoto(itemID, ref string) error {
	i, err := c.record(itemID)
	if err != nil {
		return err
	}
	photos := c.working.Checks[i].Photos
	for j, p := range photos {
		if p == ref {
			c.working.Checks[i].Photos = append(photos[:j:j], photos[j+1:]...)
			c.dirty = true
			break
		}
	}
	return nil
}

// ClearCheck removes the item's answer, notes and photos from the active day
func (c *Controller) ClearCheck(itemID string) error {
	i, err := c.record(itemID)
	if err != nil {
		return err
	}
	checks := c.working.Checks
	c.working.Checks = append(checks[:i:i], checks[i+1:]...)
	c.dirty = true
	return nil
}

// SetDayField sets a supplemental field (mileage, greasing duration, ...)
// of the active day. An empty value removes it.
func (c *Controller) SetDayField(key, value string) error {
	if !c.profile.AllowsDayField(key) {
		return &ValidationError{Field: key, Message: fmt.Sprintf("is not a field of %s inspections", c.profile.Kind)}
	}
	if err := c.editable(); err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		delete(c.working.Fields, key)
	} else {
		c.working.Fields[key] = value
	}
	c.dirty = true
	return nil
}

// SetDayFields applies several supplemental fields at once. Every key is
// checked before any is written, so a rejected batch leaves the day as it
// was.
func (c *Controller) SetDayFields(fields map[string]string) error {
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if !c.profile.AllowsDayField(key) {
			return &ValidationError{Field: key, Message: fmt.Sprintf("is not a field of %s inspections", c.profile.Kind)}
		}
	}
	if err := c.editable(); err != nil {
		return err
	}
	for key, value := range fields {
		if err := c.SetDayField(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) validateHeader() error {
	if !c.header.HasEquipment() {
		return missingField("equipment")
	}
	for _, key := range c.profile.RequiredHeader {
		if strings.TrimSpace(c.header.Extra[key]) == "" {
			return missingField(key)
		}
	}
	return nil
}

// dateFor returns the calendar date of day within the draft's week
func (c *Controller) dateFor(draft *models.WeeklyDraft, day models.DayCode) string {
	start, err := time.Parse(models.DateLayout, draft.Header.WeekStart)
	if err != nil {
		start = models.WeekStartFor(c.clock())
	}
	return start.AddDate(0, 0, day.Index()).Format(models.DateLayout)
}

// SaveDay validates the header and persists the draft with the active day's
// working fields. Nothing local changes unless the backend accepts the draft.
func (c *Controller) SaveDay(ctx context.Context) error {
	if err := c.validateHeader(); err != nil {
		return err
	}

	candidate := c.draft.Clone()
	candidate.Header = c.header.Clone()
	slot := candidate.Day(c.active)
	copyDayFields(slot, c.working)
	if slot.State != models.DayStateSubmitted {
		if slot.HasContent() {
			slot.State = models.DayStateSaved
		} else {
			slot.State = models.DayStateEmpty
		}
	}
	if slot.Date == "" {
		slot.Date = c.dateFor(&candidate, c.active)
	}
	now := c.clock().Unix()
	if candidate.CreatedAt == 0 {
		candidate.CreatedAt = now
	}
	candidate.UpdatedAt = now

	id, err := c.backend.UpsertDraft(ctx, candidate)
	if err != nil {
		log.Printf("❌ Failed to save %s draft (day %s): %v", c.profile.Kind, c.active, err)
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	candidate.ID = id
	c.draft = candidate
	c.dirty = false
	log.Printf("💾 Saved %s draft %s (day %s, completed=%v)", c.profile.Kind, id, c.active, slot.Completed())
	return nil
}

// LoadDraft replaces the form with a stored draft. A missing draft or one
// of another kind leaves a fresh form and is not reported. A backend error
// also leaves a fresh form; the returned error wraps ErrLoadFailed.
func (c *Controller) LoadDraft(ctx context.Context, draftID string) error {
	c.reset()
	if draftID == "" {
		return nil
	}

	stored, err := c.backend.GetDraft(ctx, c.identity.UserID, draftID)
	if err != nil {
		log.Printf("⚠️  Could not load draft %s: %v (starting fresh)", draftID, err)
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	if stored == nil {
		log.Printf("⚠️  Draft %s not found, starting fresh", draftID)
		return nil
	}
	if stored.Kind != c.profile.Kind {
		log.Printf("⚠️  Draft %s is a %s draft, not %s; ignoring", draftID, stored.Kind, c.profile.Kind)
		return nil
	}

	c.draft = normalizeDraft(stored.Clone())
	c.header = c.draft.Header.Clone()
	c.working = c.draft.Day(c.active).Clone()
	log.Printf("📂 Loaded %s draft %s (%d completed day(s))", c.profile.Kind, draftID, len(c.draft.CompletedDays()))
	return nil
}

// normalizeDraft repairs slots decoded from storage so they look like a
// freshly built draft
func normalizeDraft(d models.WeeklyDraft) models.WeeklyDraft {
	if d.Header.Extra == nil {
		d.Header.Extra = map[string]string{}
	}
	for i := range d.Days {
		day := &d.Days[i]
		day.Day = models.AllDays[i]
		if day.Checks == nil {
			day.Checks = []models.CheckRecord{}
		}
		if day.Fields == nil {
			day.Fields = map[string]string{}
		}
		if day.State == "" {
			if day.HasContent() {
				day.State = models.DayStateSaved
			} else {
				day.State = models.DayStateEmpty
			}
		}
	}
	return d
}
