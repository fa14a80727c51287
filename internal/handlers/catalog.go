package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitecheck-backend/internal/catalog"
	"sitecheck-backend/internal/models"
	"sitecheck-backend/pkg/utils"
)

type CatalogResponse struct {
	Profile  catalog.Profile      `json:"profile"`
	Statuses []models.CheckStatus `json:"statuses"`
	Groups   []catalog.Group      `json:"groups"`
}

// GetCatalog returns the grouped checklist for one inspection kind
// GET /api/catalog/{kind}
func GetCatalog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := models.ParseInspectionKind(chi.URLParam(r, "kind"))
		if err != nil {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		profile, _ := catalog.ProfileFor(kind)

		utils.RespondJSON(w, http.StatusOK, CatalogResponse{
			Profile:  profile,
			Statuses: profile.Statuses(),
			Groups:   catalog.Groups(kind),
		})
	}
}
