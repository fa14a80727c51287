package main

import (
	"log"
	"net/http"
	"time"

	"sitecheck-backend/internal/config"
	"sitecheck-backend/internal/database"
	"sitecheck-backend/internal/handlers"
	"sitecheck-backend/internal/metrics"
	"sitecheck-backend/internal/services"
	"sitecheck-backend/internal/session"
	"sitecheck-backend/internal/websocket"
)

func fatal(what string, err error, hints ...string) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("❌ FATAL ERROR: %s", what)
	log.Printf("   Error: %v", err)
	for _, h := range hints {
		log.Println("   " + h)
	}
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Fatal(err)
}

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 SITECHECK BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	cfg, err := config.Load()
	if err != nil {
		fatal("Invalid configuration", err,
			"Required: DATABASE_URL, APP_JWT_SECRET",
			"Optional: DATABASE_DRIVER (postgres|sqlite3), PORT, TOKEN_TTL, SESSION_TTL")
	}
	log.Printf("✅ Configuration loaded (driver=%s, session ttl=%s)", cfg.DatabaseDriver, cfg.SessionTTL)

	log.Println("🔌 Connecting to database...")
	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		fatal("Database connection failed", err,
			"This is usually caused by:",
			"1. Wrong DATABASE_URL format",
			"2. Database service is down",
			"3. Invalid credentials")
	}
	defer db.Close()
	log.Println("✅ Database connection established")

	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		fatal("Database migrations failed", err)
	}
	log.Println("✅ Database migrations completed")

	if cfg.SeedDemoUsers {
		log.Println("🌱 Seeding demo users...")
		if err := database.SeedUsers(db); err != nil {
			fatal("User seeding failed", err)
		}
		log.Println("✅ Users seeded successfully")
	}

	// Base64 credentials take precedence over the file (cloud deployments)
	var fcmService *services.FCMService
	if cfg.FirebaseBase64 != "" {
		fcmService, err = services.NewFCMServiceFromBase64(cfg.FirebaseBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (defect alerts disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		}
	} else {
		fcmService, err = services.NewFCMService(cfg.FirebaseFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (defect alerts disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from file")
		}
	}

	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	sessions := session.NewManager(cfg.SessionTTL)
	m, err := metrics.New(sessions.Count)
	if err != nil {
		fatal("Metrics registration failed", err)
	}

	env := &handlers.Inspections{
		Store:    database.NewStore(db),
		Sessions: sessions,
		Hub:      wsHub,
		Metrics:  m,
		Clock:    time.Now,
	}
	if fcmService != nil {
		env.Alerts = fcmService
	}

	r := handlers.NewRouter(handlers.RouterConfig{
		Inspections:    env,
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.TokenTTL,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestLogging: true,
	})

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", cfg.Port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		fatal("Server failed to start", err, "Port: "+cfg.Port)
	}
}
