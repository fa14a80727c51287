package database

import (
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens and pings the database. driver is "postgres" (lib/pq),
// "pgx" or "sqlite3".
func Connect(driver, dbURL string) (*sqlx.DB, error) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("🔌 DATABASE CONNECTION ATTEMPT")
	log.Printf("   📍 Driver: %s", driver)
	log.Printf("   📍 Database URL length: %d characters", len(dbURL))
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	db, err := sqlx.Connect(driver, dbURL)
	if err != nil {
		log.Println("❌ DATABASE CONNECTION FAILED AT sqlx.Connect()")
		log.Printf("   Error type: %T", err)
		log.Printf("   Error message: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// One writer at a time; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		log.Println("❌ DATABASE CONNECTION FAILED AT Ping()")
		log.Printf("   Error message: %v", err)
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ DATABASE CONNECTION SUCCESSFUL")
	return db, nil
}

// Migrate creates the schema. Every statement is idempotent and runs on
// both Postgres and SQLite, so timestamps are set by the application.
func Migrate(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('inspector', 'admin')),
			company_id TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android')),
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// One row per weekly draft; header and days are stored as JSON text
		`CREATE TABLE IF NOT EXISTS inspection_drafts (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			company_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			equipment_id TEXT NOT NULL DEFAULT '',
			equipment_text TEXT NOT NULL DEFAULT '',
			week_start TEXT NOT NULL,
			header_json TEXT NOT NULL,
			days_json TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Submitted records are immutable; there is no UPDATE path
		`CREATE TABLE IF NOT EXISTS inspection_records (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			company_id TEXT NOT NULL,
			user_name TEXT NOT NULL,
			equipment_id TEXT NOT NULL DEFAULT '',
			equipment_text TEXT NOT NULL DEFAULT '',
			project_id TEXT NOT NULL DEFAULT '',
			inspection_date TEXT NOT NULL,
			day_code TEXT NOT NULL,
			checks_json TEXT NOT NULL,
			fields_json TEXT NOT NULL,
			defect_count INTEGER NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_company_id ON users(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fcm_tokens_user_id ON fcm_tokens(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_owner_kind ON inspection_drafts(owner_id, kind)`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_updated_at ON inspection_drafts(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_records_company_date ON inspection_records(company_id, inspection_date)`,
		`CREATE INDEX IF NOT EXISTS idx_records_owner_id ON inspection_records(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_equipment_id ON inspection_records(equipment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_kind ON inspection_records(kind)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Printf("✅ Applied %d schema statements", len(migrations))
	return nil
}
