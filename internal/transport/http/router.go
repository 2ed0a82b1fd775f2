package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/studygroup-api/internal/application/auth"
	"github.com/studygroup-api/internal/config"
	"github.com/studygroup-api/internal/transport/http/handler"
	appmiddleware "github.com/studygroup-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Router is the application handler. Close stops background work owned by
// its middleware.
type Router struct {
	http.Handler
	limiter *appmiddleware.RateLimiter
}

func (rt *Router) Close() { rt.limiter.Stop() }

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) *Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(appmiddleware.Logger)
	r.Use(appmiddleware.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Applied to login and the OTP endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	authSvc := auth.NewService(auth.ServiceDeps{
		Ledger:      deps.Ledger,
		Credentials: deps.Credentials,
		Mailer:      deps.Mailer,
		Codes:       deps.Codes,
		OTPTTL:      cfg.OTPTTL,
		Now:         deps.Now,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	tokenH := handler.NewTokenHandler(authSvc)

	r.Get("/", healthH.Home)
	r.Get("/api", healthH.API)
	r.Get("/api/status", healthH.Status)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/verify-token", tokenH.Verify)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(sensitiveRL.Limit)
		r.Post("/login", authH.Login)
		r.Post("/request-otp", authH.RequestOTP)
		r.Post("/verify-otp", authH.VerifyOTP)
	})

	return &Router{Handler: r, limiter: sensitiveRL}
}
