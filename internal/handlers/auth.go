package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sitecheck-backend/internal/database"
	"sitecheck-backend/internal/middleware"
	"sitecheck-backend/internal/models"
	"sitecheck-backend/pkg/utils"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK    bool                 `json:"ok"`
	Token string               `json:"token,omitempty"`
	User  *models.UserResponse `json:"user,omitempty"`
}

func Login(store *database.Store, jwtSecret string, tokenTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		log.Printf("🔐 Login attempt for: %s", req.Email)

		user, err := store.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			log.Printf("❌ Error looking up user: %v", err)
			utils.RespondJSON(w, http.StatusInternalServerError, LoginResponse{OK: false})
			return
		}
		if user == nil {
			log.Printf("❌ User not found: %s", req.Email)
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			log.Printf("❌ Invalid password for: %s", req.Email)
			utils.RespondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		tokenString, err := middleware.IssueToken(jwtSecret, user, tokenTTL)
		if err != nil {
			log.Printf("❌ Failed to create token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create token")
			return
		}

		userResponse := user.ToUserResponse()
		log.Printf("✅ Login successful: %s (%s)", user.Email, user.Role)

		utils.RespondJSON(w, http.StatusOK, LoginResponse{
			OK:    true,
			Token: tokenString,
			User:  &userResponse,
		})
	}
}

// GetAuthStatus returns the current user as stored, so a client can detect
// a deleted account or changed role behind a still-valid token
// GET /api/auth/status
func GetAuthStatus(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userClaims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := store.GetUserByID(r.Context(), userClaims.UserID)
		if err != nil {
			log.Printf("❌ Error loading user %s: %v", userClaims.UserID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to load user")
			return
		}
		if user == nil {
			utils.RespondError(w, http.StatusUnauthorized, "User no longer exists")
			return
		}

		userResponse := user.ToUserResponse()
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"user":    userResponse,
		})
	}
}
