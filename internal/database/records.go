package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitecheck-backend/internal/models"
)

type recordRow struct {
	ID             string `db:"id"`
	Kind           string `db:"kind"`
	OwnerID        string `db:"owner_id"`
	CompanyID      string `db:"company_id"`
	UserName       string `db:"user_name"`
	EquipmentID    string `db:"equipment_id"`
	EquipmentText  string `db:"equipment_text"`
	ProjectID      string `db:"project_id"`
	InspectionDate string `db:"inspection_date"`
	DayCode        string `db:"day_code"`
	ChecksJSON     string `db:"checks_json"`
	FieldsJSON     string `db:"fields_json"`
	DefectCount    int    `db:"defect_count"`
	CreatedAt      int64  `db:"created_at"`
}

func (r *recordRow) toModel() (models.InspectionRecord, error) {
	rec := models.InspectionRecord{
		ID:            r.ID,
		Kind:          models.InspectionKind(r.Kind),
		OwnerID:       r.OwnerID,
		CompanyID:     r.CompanyID,
		UserName:      r.UserName,
		EquipmentID:   r.EquipmentID,
		EquipmentText: r.EquipmentText,
		ProjectID:     r.ProjectID,
		Date:          r.InspectionDate,
		Day:           models.DayCode(r.DayCode),
		DefectCount:   r.DefectCount,
		CreatedAt:     r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.ChecksJSON), &rec.Checks); err != nil {
		return rec, fmt.Errorf("failed to decode checks of record %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.FieldsJSON), &rec.Fields); err != nil {
		return rec, fmt.Errorf("failed to decode fields of record %s: %w", r.ID, err)
	}
	return rec, nil
}

// CreateInspectionRecord stores one submitted day and returns its new id
func (s *Store) CreateInspectionRecord(ctx context.Context, kind models.InspectionKind, rec models.InspectionRecord) (string, error) {
	rec.ID = uuid.New().String()
	rec.Kind = kind
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	if rec.Checks == nil {
		rec.Checks = []models.CheckRecord{}
	}
	if rec.Fields == nil {
		rec.Fields = map[string]string{}
	}

	checks, err := json.Marshal(rec.Checks)
	if err != nil {
		return "", fmt.Errorf("failed to encode checks: %w", err)
	}
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode fields: %w", err)
	}

	query := s.db.Rebind(`
		INSERT INTO inspection_records (
			id, kind, owner_id, company_id, user_name,
			equipment_id, equipment_text, project_id,
			inspection_date, day_code, checks_json, fields_json,
			defect_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, string(rec.Kind), rec.OwnerID, rec.CompanyID, rec.UserName,
		rec.EquipmentID, rec.EquipmentText, rec.ProjectID,
		rec.Date, string(rec.Day), string(checks), string(fields),
		rec.DefectCount, rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create %s record: %w", kind, err)
	}

	log.Printf("✅ Created %s record %s (%s, %d defect(s))", kind, rec.ID, rec.Date, rec.DefectCount)
	return rec.ID, nil
}

// ListInspectionRecords is the read path used by report views
func (s *Store) ListInspectionRecords(ctx context.Context, f models.RecordFilter) ([]models.InspectionRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, value interface{}) {
		where = append(where, clause)
		args = append(args, value)
	}
	if f.CompanyID != "" {
		add("company_id = ?", f.CompanyID)
	}
	if f.OwnerID != "" {
		add("owner_id = ?", f.OwnerID)
	}
	if f.Kind != "" {
		add("kind = ?", string(f.Kind))
	}
	if f.EquipmentID != "" {
		add("equipment_id = ?", f.EquipmentID)
	}
	if f.From != "" {
		add("inspection_date >= ?", f.From)
	}
	if f.To != "" {
		add("inspection_date <= ?", f.To)
	}

	query := `SELECT * FROM inspection_records`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY inspection_date DESC, created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]models.InspectionRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetInspectionRecord returns nil, nil for an unknown id
func (s *Store) GetInspectionRecord(ctx context.Context, id string) (*models.InspectionRecord, error) {
	var row recordRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM inspection_records WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	rec, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteInspectionRecord removes a record belonging to companyID
func (s *Store) DeleteInspectionRecord(ctx context.Context, companyID, id string) (bool, error) {
	query := s.db.Rebind(`DELETE FROM inspection_records WHERE id = ? AND company_id = ?`)
	result, err := s.db.ExecContext(ctx, query, id, companyID)
	if err != nil {
		return false, fmt.Errorf("failed to delete record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		log.Printf("🗑️  Deleted inspection record %s", id)
	}
	return rowsAffected > 0, nil
}
