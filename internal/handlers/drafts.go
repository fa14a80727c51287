package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitecheck-backend/internal/database"
	"sitecheck-backend/internal/middleware"
	"sitecheck-backend/internal/models"
	"sitecheck-backend/pkg/utils"
)

// ListDrafts returns the caller's saved drafts, optionally for one kind
// GET /api/drafts?kind=plant
func ListDrafts(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var kind models.InspectionKind
		if raw := r.URL.Query().Get("kind"); raw != "" {
			parsed, err := models.ParseInspectionKind(raw)
			if err != nil {
				utils.RespondError(w, http.StatusBadRequest, err.Error())
				return
			}
			kind = parsed
		}

		drafts, err := store.ListDrafts(r.Context(), userClaims.UserID, kind)
		if err != nil {
			log.Printf("❌ Error listing drafts: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to list drafts")
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"drafts":  drafts,
		})
	}
}

// DeleteDraft discards one of the caller's drafts
// DELETE /api/drafts/{id}
func DeleteDraft(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		draftID := chi.URLParam(r, "id")
		deleted, err := store.DeleteOwnedDraft(r.Context(), userClaims.UserID, draftID)
		if err != nil {
			log.Printf("❌ Error deleting draft %s: %v", draftID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete draft")
			return
		}
		if !deleted {
			utils.RespondError(w, http.StatusNotFound, "Draft not found")
			return
		}

		log.Printf("🗑️  Draft %s discarded by %s", draftID, userClaims.Email)
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
