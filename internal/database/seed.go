package database

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"sitecheck-backend/internal/models"
)

// DemoCompanyID groups the seeded accounts
const DemoCompanyID = "demo-company"

// SeedUsers creates a demo admin and inspector when the users table is empty
func SeedUsers(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Users already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding demo users...")

	inspectorPassword, err := bcrypt.GenerateFromPassword([]byte("inspector123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	users := []models.User{
		{
			ID:        uuid.New().String(),
			Email:     "inspector@sitecheck.dev",
			Password:  string(inspectorPassword),
			Name:      "Demo Inspector",
			Role:      models.RoleInspector,
			CompanyID: DemoCompanyID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        uuid.New().String(),
			Email:     "admin@sitecheck.dev",
			Password:  string(adminPassword),
			Name:      "Site Manager",
			Role:      models.RoleAdmin,
			CompanyID: DemoCompanyID,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	for _, user := range users {
		query := `
			INSERT INTO users (id, email, password, name, role, company_id, created_at, updated_at)
			VALUES (:id, :email, :password, :name, :role, :company_id, :created_at, :updated_at)
		`
		if _, err := db.NamedExec(query, user); err != nil {
			return err
		}
		log.Printf("  ✓ Created user: %s (%s)", user.Email, user.Role)
	}

	log.Println("✓ Successfully seeded demo users")
	log.Println("  📧 Inspector: inspector@sitecheck.dev / inspector123")
	log.Println("  📧 Admin:     admin@sitecheck.dev / admin123")
	return nil
}
