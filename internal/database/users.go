package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sitecheck-backend/internal/models"
)

// GetUserByEmail returns nil, nil when no user has that email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(`SELECT * FROM users WHERE email = ?`), email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetUserByID returns nil, nil when the user does not exist
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(`SELECT * FROM users WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateUser inserts a user whose password is already hashed
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if user.CreatedAt == 0 {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, password, name, role, company_id, created_at, updated_at)
		VALUES (:id, :email, :password, :name, :role, :company_id, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpsertFCMToken registers a device token, moving it to userID if another
// account registered it before
func (s *Store) UpsertFCMToken(ctx context.Context, userID, token, deviceType string) error {
	now := time.Now().Unix()
	query := s.db.Rebind(`
		INSERT INTO fcm_tokens (id, user_id, token, device_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (token) DO UPDATE SET
			user_id = excluded.user_id,
			device_type = excluded.device_type,
			updated_at = excluded.updated_at
	`)
	if _, err := s.db.ExecContext(ctx, query, uuid.New().String(), userID, token, deviceType, now, now); err != nil {
		return fmt.Errorf("failed to save fcm token: %w", err)
	}
	return nil
}

// GetCompanyAdminTokens returns the push tokens of every admin in companyID
func (s *Store) GetCompanyAdminTokens(ctx context.Context, companyID string) ([]string, error) {
	query := s.db.Rebind(`
		SELECT t.token FROM fcm_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE u.company_id = ? AND u.role = ?
		ORDER BY t.updated_at DESC
	`)

	tokens := []string{}
	if err := s.db.SelectContext(ctx, &tokens, query, companyID, models.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to get admin tokens: %w", err)
	}
	return tokens, nil
}
