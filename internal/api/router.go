package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/ender-auth/internal/api/handlers"
	"github.com/isdelr/ender-auth/internal/auth"
	"github.com/isdelr/ender-auth/internal/monitoring"
	"github.com/isdelr/ender-auth/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps holds everything the HTTP layer needs.
type RouterDeps struct {
	Accounts      services.AccountServiceProvider
	Events        services.EventServiceProvider
	Sessions      *auth.TokenIssuer
	Metrics       *monitoring.Metrics // optional
	DB            Pinger              // optional, used by /healthz
	CORSOrigins   []string
	SecureCookies bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthz(deps.DB))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(deps.Accounts, deps.SecureCookies)
	eventHandler := handlers.NewEventHandler(deps.Events)

	// API versioning
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", accountHandler.Register)
		r.Post("/login", accountHandler.Login)
		r.Post("/logout", accountHandler.Logout)
		r.Get("/loggedin", accountHandler.LoginStatus)
		r.Post("/forgotpassword", accountHandler.ForgotPassword)
		r.Put("/resetpassword/{resetToken}", accountHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(deps.Sessions))
			r.Get("/getuser", accountHandler.GetMe)
			r.Patch("/updateuser", accountHandler.Update)
			r.Patch("/changepassword", accountHandler.ChangePassword)
			r.Get("/activity", eventHandler.GetRecent)
		})
	})

	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
