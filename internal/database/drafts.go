package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"sitecheck-backend/internal/models"
)

// Store is the sqlx-backed persistence collaborator for drafts, records,
// users and device tokens
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open connection
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for migrations and seeding
func (s *Store) DB() *sqlx.DB {
	return s.db
}

type draftRow struct {
	ID            string `db:"id"`
	OwnerID       string `db:"owner_id"`
	CompanyID     string `db:"company_id"`
	Kind          string `db:"kind"`
	EquipmentID   string `db:"equipment_id"`
	EquipmentText string `db:"equipment_text"`
	WeekStart     string `db:"week_start"`
	HeaderJSON    string `db:"header_json"`
	DaysJSON      string `db:"days_json"`
	CreatedAt     int64  `db:"created_at"`
	UpdatedAt     int64  `db:"updated_at"`
}

func (r *draftRow) toModel() (*models.WeeklyDraft, error) {
	d := &models.WeeklyDraft{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		CompanyID: r.CompanyID,
		Kind:      models.InspectionKind(r.Kind),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.HeaderJSON), &d.Header); err != nil {
		return nil, fmt.Errorf("failed to decode header of draft %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.DaysJSON), &d.Days); err != nil {
		return nil, fmt.Errorf("failed to decode days of draft %s: %w", r.ID, err)
	}
	return d, nil
}

// UpsertDraft inserts a new draft (empty ID) or replaces the owner's
// existing one. Returns the stored id.
func (s *Store) UpsertDraft(ctx context.Context, d models.WeeklyDraft) (string, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if d.CreatedAt == 0 {
		d.CreatedAt = now
	}
	if d.UpdatedAt == 0 {
		d.UpdatedAt = now
	}

	header, err := json.Marshal(d.Header)
	if err != nil {
		return "", fmt.Errorf("failed to encode draft header: %w", err)
	}
	days, err := json.Marshal(d.Days)
	if err != nil {
		return "", fmt.Errorf("failed to encode draft days: %w", err)
	}

	query := s.db.Rebind(`
		INSERT INTO inspection_drafts (
			id, owner_id, company_id, kind, equipment_id, equipment_text,
			week_start, header_json, days_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			equipment_id = excluded.equipment_id,
			equipment_text = excluded.equipment_text,
			week_start = excluded.week_start,
			header_json = excluded.header_json,
			days_json = excluded.days_json,
			updated_at = excluded.updated_at
		WHERE inspection_drafts.owner_id = excluded.owner_id
	`)

	result, err := s.db.ExecContext(ctx, query,
		d.ID, d.OwnerID, d.CompanyID, string(d.Kind), d.Header.EquipmentID, d.Header.EquipmentText,
		d.Header.WeekStart, string(header), string(days), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert draft: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return "", fmt.Errorf("draft %s belongs to another user", d.ID)
	}

	return d.ID, nil
}

// GetDraft returns nil, nil when the owner has no draft with that id
func (s *Store) GetDraft(ctx context.Context, ownerID, draftID string) (*models.WeeklyDraft, error) {
	var row draftRow
	query := s.db.Rebind(`SELECT * FROM inspection_drafts WHERE id = ? AND owner_id = ?`)

	err := s.db.GetContext(ctx, &row, query, draftID, ownerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	return row.toModel()
}

// ListDrafts returns the owner's drafts, newest first. An empty kind lists all kinds.
func (s *Store) ListDrafts(ctx context.Context, ownerID string, kind models.InspectionKind) ([]models.DraftSummary, error) {
	query := `SELECT id, kind, equipment_id, equipment_text, week_start, updated_at
	          FROM inspection_drafts WHERE owner_id = ?`
	args := []interface{}{ownerID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY updated_at DESC`

	drafts := []models.DraftSummary{}
	if err := s.db.SelectContext(ctx, &drafts, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return drafts, nil
}

// DeleteDraft removes a draft. Deleting a missing draft is not an error.
func (s *Store) DeleteDraft(ctx context.Context, draftID string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM inspection_drafts WHERE id = ?`), draftID)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Printf("🗑️  Deleted draft %s (%d row(s))", draftID, rowsAffected)
	return nil
}

// DeleteOwnedDraft deletes a draft only if ownerID owns it
func (s *Store) DeleteOwnedDraft(ctx context.Context, ownerID, draftID string) (bool, error) {
	query := s.db.Rebind(`DELETE FROM inspection_drafts WHERE id = ? AND owner_id = ?`)
	result, err := s.db.ExecContext(ctx, query, draftID, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete draft: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
