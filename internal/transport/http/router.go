package http

import (
	"net/http"

	"github.com/geooptima/backend/internal/application/auth"
	"github.com/geooptima/backend/internal/config"
	"github.com/geooptima/backend/internal/transport/http/handler"
	appmiddleware "github.com/geooptima/backend/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to the public auth endpoints
	// so a single client cannot hammer SMS delivery or brute-force codes.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		SMSSender:   deps.SMSSender,
		JWTProvider: deps.JWTProvider,
		OTPTTL:      cfg.OTPTTL,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	accountH := handler.NewAccountHandler(authSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.Post("/verify-otp", authH.VerifyOTP)
			r.Post("/complete-registration", authH.CompleteRegistration)
		})

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))
			r.Get("/accounts/me", accountH.Me)
		})
	})

	return r
}
