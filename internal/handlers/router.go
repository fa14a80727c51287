package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sitecheck-backend/internal/middleware"
	"sitecheck-backend/internal/models"
	"sitecheck-backend/internal/websocket"
)

// RouterConfig carries everything the HTTP surface is built from
type RouterConfig struct {
	Inspections    *Inspections
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	// RequestLogging enables chi's request logger
	RequestLogging bool
}

// NewRouter wires every endpoint of the service
func NewRouter(cfg RouterConfig) http.Handler {
	env := cfg.Inspections
	store := env.Store

	r := chi.NewRouter()

	if cfg.RequestLogging {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if env.Metrics != nil {
		r.Handle("/metrics", env.Metrics.Handler())
	}

	r.Post("/api/auth/login", Login(store, cfg.JWTSecret, cfg.TokenTTL))
	r.Post("/api/logs/diagnostic", ReceiveDiagnosticLog())

	if env.Hub != nil {
		r.Get("/ws", websocket.HandleWebSocket(env.Hub, cfg.JWTSecret))
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))

			r.Get("/auth/status", GetAuthStatus(store))
			r.Get("/catalog/{kind}", GetCatalog())

			r.Get("/drafts", ListDrafts(store))
			r.Delete("/drafts/{id}", DeleteDraft(store))

			r.Route("/inspections/sessions", func(r chi.Router) {
				r.Post("/", OpenSession(env))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", GetSession(env))
					r.Delete("/", CloseSession(env))
					r.Put("/header", UpdateHeader(env))
					r.Post("/day", SelectDay(env))
					r.Put("/fields", UpdateDayFields(env))
					r.Put("/checks/{itemID}/status", SetCheckStatus(env))
					r.Put("/checks/{itemID}/notes", SetCheckNotes(env))
					r.Delete("/checks/{itemID}", ClearCheck(env))
					r.Post("/checks/{itemID}/photos", AddPhoto(env))
					r.Delete("/checks/{itemID}/photos", RemovePhoto(env))
					r.Post("/save", SaveDay(env))
					r.Post("/submit", SubmitWeek(env))
				})
			})

			r.Get("/inspections/records", ListMyRecords(store))
			r.Get("/inspections/records/{id}", GetRecord(store))
			r.Post("/devices/fcm-token", RegisterFCMToken(store))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RequireRole(models.RoleAdmin))

			r.Get("/manager/records", ListCompanyRecords(store))
			r.Delete("/manager/records/{id}", DeleteRecord(store))
			r.Post("/users", CreateUser(store))
		})
	})

	return r
}
