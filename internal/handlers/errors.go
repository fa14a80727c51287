package handlers

import (
	"errors"
	"log"
	"net/http"

	"sitecheck-backend/internal/inspection"
	"sitecheck-backend/internal/session"
	"sitecheck-backend/pkg/utils"
)

// writeInspectionError maps workflow errors onto HTTP responses. Backend
// failures are reported with a generic retry message.
func writeInspectionError(w http.ResponseWriter, err error) {
	var verr *inspection.ValidationError
	var serr *inspection.SubmitError

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "Editing session not found")
	case errors.Is(err, session.ErrBusy):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &verr):
		utils.RespondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"error":   verr.Error(),
			"field":   verr.Field,
		})
	case errors.Is(err, inspection.ErrDayLocked), errors.Is(err, inspection.ErrNoCheckRecord):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, inspection.ErrUnknownItem):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inspection.ErrSaveFailed):
		utils.RespondError(w, http.StatusBadGateway, inspection.ErrSaveFailed.Error())
	case errors.As(err, &serr):
		utils.RespondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"success":        false,
			"error":          inspection.ErrSubmitFailed.Error(),
			"failed_day":     serr.Day,
			"submitted_days": serr.Submitted,
		})
	default:
		log.Printf("❌ Unexpected error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
