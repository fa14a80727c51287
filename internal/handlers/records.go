package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sitecheck-backend/internal/database"
	"sitecheck-backend/internal/middleware"
	"sitecheck-backend/internal/models"
	"sitecheck-backend/pkg/utils"
)

const maxRecordLimit = 500

// parseRecordFilter reads kind, equipment_id, from, to and limit
func parseRecordFilter(r *http.Request) (models.RecordFilter, error) {
	q := r.URL.Query()
	f := models.RecordFilter{
		EquipmentID: q.Get("equipment_id"),
		From:        q.Get("from"),
		To:          q.Get("to"),
		Limit:       100,
	}
	if raw := q.Get("kind"); raw != "" {
		kind, err := models.ParseInspectionKind(raw)
		if err != nil {
			return f, err
		}
		f.Kind = kind
	}
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return f, err
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return f, strconv.ErrSyntax
		}
		if limit > maxRecordLimit {
			limit = maxRecordLimit
		}
		f.Limit = limit
	}
	return f, nil
}

func respondRecords(w http.ResponseWriter, records []models.InspectionRecord) {
	resp := make([]models.RecordResponse, 0, len(records))
	for i := range records {
		resp = append(resp, records[i].ToRecordResponse())
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"records": resp,
	})
}

// ListMyRecords returns the caller's submitted records
// GET /api/inspections/records
func ListMyRecords(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		filter, err := parseRecordFilter(r)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid filter: "+err.Error())
			return
		}
		filter.CompanyID = userClaims.CompanyID
		filter.OwnerID = userClaims.UserID

		records, err := store.ListInspectionRecords(r.Context(), filter)
		if err != nil {
			log.Printf("❌ Error listing records: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to list records")
			return
		}
		respondRecords(w, records)
	}
}

// ListCompanyRecords is the manager report view across the company
// GET /api/manager/records
func ListCompanyRecords(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		filter, err := parseRecordFilter(r)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid filter: "+err.Error())
			return
		}
		filter.CompanyID = userClaims.CompanyID
		filter.OwnerID = r.URL.Query().Get("owner_id")

		log.Printf("📥 REQUEST: GET /api/manager/records (company %s, kind %q)", filter.CompanyID, filter.Kind)

		records, err := store.ListInspectionRecords(r.Context(), filter)
		if err != nil {
			log.Printf("❌ Error listing records: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to list records")
			return
		}
		respondRecords(w, records)
	}
}

// GetRecord returns one record. Inspectors see their own records, admins
// any record of their company.
// GET /api/inspections/records/{id}
func GetRecord(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		recordID := chi.URLParam(r, "id")
		rec, err := store.GetInspectionRecord(r.Context(), recordID)
		if err != nil {
			log.Printf("❌ Error loading record %s: %v", recordID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to load record")
			return
		}
		visible := rec != nil && rec.CompanyID == userClaims.CompanyID &&
			(rec.OwnerID == userClaims.UserID || userClaims.Role == models.RoleAdmin)
		if !visible {
			utils.RespondError(w, http.StatusNotFound, "Record not found")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"record":  rec.ToRecordResponse(),
		})
	}
}

// DeleteRecord removes a record filed in error
// DELETE /api/manager/records/{id}
func DeleteRecord(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		recordID := chi.URLParam(r, "id")
		deleted, err := store.DeleteInspectionRecord(r.Context(), userClaims.CompanyID, recordID)
		if err != nil {
			log.Printf("❌ Error deleting record %s: %v", recordID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete record")
			return
		}
		if !deleted {
			utils.RespondError(w, http.StatusNotFound, "Record not found")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
