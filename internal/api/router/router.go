package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/olimpiarestoration/leadbridge/internal/callback"
	httpmiddleware "github.com/olimpiarestoration/leadbridge/internal/http/middleware"
	"github.com/olimpiarestoration/leadbridge/internal/intake"
	"github.com/olimpiarestoration/leadbridge/internal/leads"
	"github.com/olimpiarestoration/leadbridge/internal/triage"
	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	CallbackHandler    *callback.Handler
	StatusReconciler   *callback.Reconciler
	TriageHandler      *triage.Handler
	IntakeHandler      *intake.Handler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Visitor-facing intake endpoints
	r.Route("/api", func(api chi.Router) {
		api.Post("/lead", cfg.LeadsHandler.Submit)
		api.Post("/chat/triage", cfg.TriageHandler.Triage)
		if cfg.IntakeHandler != nil {
			api.Post("/intake", cfg.IntakeHandler.Submit)
		}

		api.Route("/callback", func(cb chi.Router) {
			cb.Post("/", cfg.CallbackHandler.Request)
			// Provider-invoked; GET kept for manual inspection.
			cb.Get("/bridge", cfg.CallbackHandler.Bridge)
			cb.Post("/bridge", cfg.CallbackHandler.Bridge)
			cb.Get("/bridge/oncall", cfg.CallbackHandler.OnCallBridge)
			cb.Post("/bridge/oncall", cfg.CallbackHandler.OnCallBridge)
			cb.Post("/status", cfg.StatusReconciler.Status)
		})
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads", cfg.LeadsHandler.List)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
