package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sitecheck-backend/internal/catalog"
	"sitecheck-backend/internal/database"
	"sitecheck-backend/internal/inspection"
	"sitecheck-backend/internal/metrics"
	"sitecheck-backend/internal/middleware"
	"sitecheck-backend/internal/models"
	"sitecheck-backend/internal/session"
	"sitecheck-backend/internal/websocket"
	"sitecheck-backend/pkg/utils"
)

// DefectNotifier pushes defect alerts to manager devices
type DefectNotifier interface {
	SendDefectAlert(ctx context.Context, tokens []string, rec models.InspectionRecord) error
}

// Inspections bundles what the editing-session endpoints need. Hub,
// Alerts, Metrics and Clock are optional.
type Inspections struct {
	Store    *database.Store
	Sessions *session.Manager
	Hub      *websocket.Hub
	Alerts   DefectNotifier
	Metrics  *metrics.Metrics
	Clock    func() time.Time
}

// DaySummary is one tab of the week selector
type DaySummary struct {
	Day       models.DayCode  `json:"day"`
	Date      string          `json:"date,omitempty"`
	State     models.DayState `json:"state"`
	Completed bool            `json:"completed"`
	Checks    int             `json:"checks"`
}

// SessionView is the full form state returned by every session endpoint
type SessionView struct {
	SessionID string                `json:"session_id"`
	Kind      models.InspectionKind `json:"kind"`
	DraftID   string                `json:"draft_id,omitempty"`
	ActiveDay models.DayCode        `json:"active_day"`
	Header    models.DraftHeader    `json:"header"`
	Working   models.DayEntry       `json:"working"`
	Expanded  []string              `json:"expanded"` // items whose detail panel is open
	Days      []DaySummary          `json:"days"`
	Warning   string                `json:"warning,omitempty"`
}

func buildView(s *session.Session, c *inspection.Controller) SessionView {
	working := c.WorkingDay()
	view := SessionView{
		SessionID: s.ID,
		Kind:      c.Kind(),
		DraftID:   c.DraftID(),
		ActiveDay: c.ActiveDay(),
		Header:    c.Header(),
		Working:   working,
		Expanded:  []string{},
	}
	for _, rec := range working.Checks {
		if c.DetailExpanded(rec.ItemID) {
			view.Expanded = append(view.Expanded, rec.ItemID)
		}
	}
	snap := c.Snapshot()
	for _, d := range snap.Days {
		view.Days = append(view.Days, DaySummary{
			Day:       d.Day,
			Date:      d.Date,
			State:     d.State,
			Completed: d.Completed(),
			Checks:    len(d.Checks),
		})
	}
	return view
}

func (env *Inspections) countValidation(operation string, err error) {
	if env.Metrics != nil && errors.Is(err, inspection.ErrValidation) {
		env.Metrics.ValidationErrors.WithLabelValues(operation).Inc()
	}
}

// sessionFor resolves the {id} session of the caller
func (env *Inspections) sessionFor(r *http.Request) (*session.Session, middleware.UserClaims, error) {
	userClaims, ok := middleware.GetUserFromContext(r)
	if !ok {
		return nil, userClaims, session.ErrSessionNotFound
	}
	s, err := env.Sessions.Get(chi.URLParam(r, "id"), userClaims.UserID)
	return s, userClaims, err
}

// edit applies fn under the session lock and responds with the new view
func (env *Inspections) edit(w http.ResponseWriter, r *http.Request, fn func(c *inspection.Controller) error) {
	s, _, err := env.sessionFor(r)
	if err != nil {
		writeInspectionError(w, err)
		return
	}

	var view SessionView
	err = s.Do(func(c *inspection.Controller) error {
		if err := fn(c); err != nil {
			return err
		}
		view = buildView(s, c)
		return nil
	})
	if err != nil {
		env.countValidation("edit", err)
		writeInspectionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

type OpenSessionRequest struct {
	Kind    string `json:"kind"`
	DraftID string `json:"draft_id,omitempty"`
}

// OpenSession starts editing a new week, or resumes a saved draft
// POST /api/inspections/sessions
func OpenSession(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req OpenSessionRequest
		if !decode(w, r, &req) {
			return
		}
		kind, err := models.ParseInspectionKind(req.Kind)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		profile, _ := catalog.ProfileFor(kind)

		var opts []inspection.Option
		if env.Clock != nil {
			opts = append(opts, inspection.WithClock(env.Clock))
		}
		c := inspection.NewController(profile, env.Store, userClaims.Identity(), opts...)

		warning := ""
		if err := c.LoadDraft(r.Context(), req.DraftID); err != nil {
			warning = err.Error()
		}

		s := env.Sessions.Open(userClaims.UserID, c)

		var view SessionView
		_ = s.Do(func(c *inspection.Controller) error {
			view = buildView(s, c)
			return nil
		})
		view.Warning = warning
		utils.RespondJSON(w, http.StatusCreated, view)
	}
}

// GetSession returns the current form state
// GET /api/inspections/sessions/{id}
func GetSession(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env.edit(w, r, func(*inspection.Controller) error { return nil })
	}
}

// CloseSession leaves the form without saving
// DELETE /api/inspections/sessions/{id}
func CloseSession(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err := env.Sessions.Close(chi.URLParam(r, "id"), userClaims.UserID); err != nil {
			writeInspectionError(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}

type HeaderRequest struct {
	EquipmentID   string            `json:"equipment_id"`
	EquipmentText string            `json:"equipment_text"`
	ProjectID     string            `json:"project_id"`
	WeekStart     string            `json:"week_start"`
	Extra         map[string]string `json:"extra"`
}

// UpdateHeader replaces the week-level fields
// PUT /api/inspections/sessions/{id}/header
func UpdateHeader(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HeaderRequest
		if !decode(w, r, &req) {
			return
		}
		env.edit(w, r, func(c *inspection.Controller) error {
			err := c.SetHeader(models.DraftHeader{
				EquipmentID:   req.EquipmentID,
				EquipmentText: req.EquipmentText,
				ProjectID:     req.ProjectID,
				WeekStart:     req.WeekStart,
			})
			if err != nil {
				return err
			}
			for key, value := range req.Extra {
				c.SetHeaderField(key, value)
			}
			return nil
		})
	}
}

// SelectDay switches the active day
// POST /api/inspections/sessions/{id}/day
func SelectDay(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Day string `json:"day"`
		}
		if !decode(w, r, &req) {
			return
		}
		day, err := models.ParseDayCode(req.Day)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		env.edit(w, r, func(c *inspection.Controller) error {
			c.SelectDay(day)
			return nil
		})
	}
}

// UpdateDayFields sets supplemental fields of the active day
// PUT /api/inspections/sessions/{id}/fields
func UpdateDayFields(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Fields map[string]string `json:"fields"`
		}
		if !decode(w, r, &req) {
			return
		}
		env.edit(w, r, func(c *inspection.Controller) error {
			return c.SetDayFields(req.Fields)
		})
	}
}

// SetCheckStatus answers one checklist item on the active day
// PUT /api/inspections/sessions/{id}/checks/{itemID}/status
func SetCheckStatus(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status models.CheckStatus `json:"status"`
		}
		if !decode(w, r, &req) {
			return
		}
		itemID := chi.URLParam(r, "itemID")
		env.edit(w, r, func(c *inspection.Controller) error {
			return c.SetCheckStatus(itemID, req.Status)
		})
	}
}

// SetCheckNotes replaces the notes of an answered item
// PUT /api/inspections/sessions/{id}/checks/{itemID}/notes
func SetCheckNotes(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Notes string `json:"notes"`
		}
		if !decode(w, r, &req) {
			return
		}
		itemID := chi.URLParam(r, "itemID")
		env.edit(w, r, func(c *inspection.Controller) error {
			return c.SetCheckNotes(itemID, req.Notes)
		})
	}
}

// ClearCheck removes an item's answer from the active day
// DELETE /api/inspections/sessions/{id}/checks/{itemID}
func ClearCheck(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "itemID")
		env.edit(w, r, func(c *inspection.Controller) error {
			return c.ClearCheck(itemID)
		})
	}
}

// AddPhoto attaches a media reference to an answered item
// POST /api/inspections/sessions/{id}/checks/{itemID}/photos
func AddPhoto(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Ref string `json:"ref"`
		}
		if !decode(w, r, &req) {
			return
		}
		itemID := chi.URLParam(r, "itemID")
		env.edit(w, r, func(c *inspection.Controller) error {
			return c.AddPhoto(itemID, req.Ref)
		})
	}
}

// RemovePhoto detaches a media reference
// DELETE /api/inspections/sessions/{id}/checks/{itemID}/photos?ref=...
func RemovePhoto(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "itemID")
		ref := r.URL.Query().Get("ref")
		env.edit(w, r, func(c *inspection.Controller) error {
			return c.RemovePhoto(itemID, ref)
		})
	}
}

// SaveDay persists the draft with the active day's answers
// POST /api/inspections/sessions/{id}/save
func SaveDay(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, userClaims, err := env.sessionFor(r)
		if err != nil {
			writeInspectionError(w, err)
			return
		}

		var view SessionView
		err = s.Exclusive(func(c *inspection.Controller) error {
			err := c.SaveDay(r.Context())
			if env.Metrics != nil && !errors.Is(err, inspection.ErrValidation) {
				env.Metrics.DraftSaved(string(c.Kind()), err)
			}
			if err != nil {
				return err
			}
			view = buildView(s, c)
			return nil
		})
		if err != nil {
			env.countValidation("save", err)
			writeInspectionError(w, err)
			return
		}

		env.broadcast(userClaims.CompanyID, "draft_saved", map[string]interface{}{
			"draft_id":   view.DraftID,
			"kind":       view.Kind,
			"day":        view.ActiveDay,
			"inspector":  userClaims.Name,
			"equipment":  equipmentLabel(view.Header),
			"week_start": view.Header.WeekStart,
		})
		utils.RespondJSON(w, http.StatusOK, view)
	}
}

type SubmitResponse struct {
	Success bool                     `json:"success"`
	Result  *inspection.SubmitResult `json:"result"`
	Session *SessionView             `json:"session,omitempty"`
}

// SubmitWeek creates a record per completed day. On full success the
// session is closed since the form is done.
// POST /api/inspections/sessions/{id}/submit
func SubmitWeek(env *Inspections) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, userClaims, err := env.sessionFor(r)
		if err != nil {
			writeInspectionError(w, err)
			return
		}

		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Printf("📥 REQUEST: POST submit session %s (%s)", s.ID, userClaims.Email)

		var (
			result *inspection.SubmitResult
			kind   models.InspectionKind
			view   SessionView
		)
		err = s.Exclusive(func(c *inspection.Controller) error {
			kind = c.Kind()
			var err error
			result, err = c.SubmitWeek(r.Context())
			view = buildView(s, c)
			return err
		})

		if result != nil && result.Created > 0 {
			env.afterSubmit(r.Context(), userClaims, kind, result)
		}

		if err != nil {
			env.countValidation("submit", err)
			if env.Metrics != nil && errors.Is(err, inspection.ErrSubmitFailed) {
				env.Metrics.SubmitFailures.WithLabelValues(string(kind)).Inc()
			}
			log.Printf("❌ Submit failed: %v", err)
			log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			writeInspectionError(w, err)
			return
		}

		resp := SubmitResponse{Success: true, Result: result}
		if result.Done {
			if err := env.Sessions.Close(s.ID, userClaims.UserID); err != nil {
				log.Printf("⚠️  Could not close session %s: %v", s.ID, err)
			}
		} else {
			resp.Session = &view
		}

		log.Printf("✅ Submitted %d record(s) for %s", result.Created, userClaims.Email)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		utils.RespondJSON(w, http.StatusOK, resp)
	}
}

// afterSubmit publishes the created records to managers. Runs for partial
// submissions too since those records are committed.
func (env *Inspections) afterSubmit(ctx context.Context, who middleware.UserClaims, kind models.InspectionKind, result *inspection.SubmitResult) {
	if env.Metrics != nil {
		env.Metrics.RecordsCreated.WithLabelValues(string(kind)).Add(float64(result.Created))
	}

	defects := 0
	for _, rec := range result.Records {
		defects += rec.DefectCount
	}
	env.broadcast(who.CompanyID, "inspection_submitted", map[string]interface{}{
		"kind":       kind,
		"inspector":  who.Name,
		"days":       result.Days,
		"record_ids": result.RecordIDs,
		"defects":    defects,
	})

	if env.Alerts == nil || defects == 0 {
		return
	}
	tokens, err := env.Store.GetCompanyAdminTokens(ctx, who.CompanyID)
	if err != nil {
		log.Printf("⚠️  Could not load admin tokens for defect alert: %v", err)
		return
	}
	for _, rec := range result.Records {
		if rec.DefectCount == 0 {
			continue
		}
		if err := env.Alerts.SendDefectAlert(ctx, tokens, rec); err != nil {
			log.Printf("⚠️  Defect alert for record %s failed: %v", rec.ID, err)
		}
	}
}

func (env *Inspections) broadcast(companyID, eventType string, data interface{}) {
	if env.Hub == nil {
		return
	}
	sent := env.Hub.BroadcastToCompanyRole(companyID, models.RoleAdmin, websocket.Event{Type: eventType, Data: data})
	log.Printf("📤 %s broadcast to %d manager(s)", eventType, sent)
}

func equipmentLabel(h models.DraftHeader) string {
	if h.EquipmentID != "" {
		return h.EquipmentID
	}
	return h.EquipmentText
}
