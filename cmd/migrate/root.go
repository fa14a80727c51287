package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"sitecheck-backend/internal/config"
	"sitecheck-backend/internal/database"
	"sitecheck-backend/internal/models"
)

// openDB connects with the same settings the server uses
func openDB() (*sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sitecheck-migrate",
		Short:         "Database maintenance for the sitecheck backend",
		SilenceUsage:  true,
	}
	root.AddCommand(newUpCmd(), newAddUserCmd())
	return root
}

func newUpCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Create or update the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			log.Println("🔄 Running database migrations...")
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Println("✅ Database migrations completed")

			if seed {
				return database.SeedUsers(db)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "also create the demo users when the users table is empty")
	return cmd
}

func newAddUserCmd() *cobra.Command {
	var email, password, name, role, company string
	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Create an inspector or admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			return addUser(cmd, database.NewStore(db), email, password, name, role, company)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&password, "password", "", "initial password (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "inspector or admin")
	cmd.Flags().StringVar(&company, "company", database.DemoCompanyID, "company the account belongs to")
	for _, f := range []string{"email", "password", "name"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func addUser(cmd *cobra.Command, store *database.Store, email, password, name, role, company string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if role != models.RoleInspector && role != models.RoleAdmin {
		return fmt.Errorf("role must be %q or %q, got %q", models.RoleInspector, models.RoleAdmin, role)
	}

	existing, err := store.GetUserByEmail(cmd.Context(), email)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Printf("⚠️  User already exists: %s", email)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Email:     email,
		Password:  string(hash),
		Name:      strings.TrimSpace(name),
		Role:      role,
		CompanyID: company,
	}
	if err := store.CreateUser(cmd.Context(), user); err != nil {
		return err
	}

	log.Printf("✅ Created %s user: %s (company %s)", user.Role, user.Email, user.CompanyID)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", user.ID)
	return nil
}
