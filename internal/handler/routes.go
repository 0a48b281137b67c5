package handler

import (
	"net/http"
	"time"

	"github.com/tavoloai/tavolo-web/internal/service"
	"github.com/tavoloai/tavolo-web/internal/view"
)

// Deps holds what the routes are built from.
type Deps struct {
	Auth      *service.AuthService
	Dashboard *service.DashboardService
	// Limiter throttles sign-in, sign-up, registration and password reset
	// per client IP. Nil disables throttling.
	Limiter *service.RateLimiter
	// DB backs /readyz. Nil reports the database as not configured.
	DB                   Pinger
	CookieSecure         bool
	SessionCheckInterval time.Duration
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	if d.Dashboard == nil {
		d.Dashboard = service.NewDashboardService()
	}
	authHandler := NewAuthHandler(d.Auth, d.Limiter, d.CookieSecure)
	dashboardHandler := NewDashboardHandler(d.Dashboard, d.Auth, d.SessionCheckInterval)

	optional := func(h http.HandlerFunc) http.Handler { return OptionalSession(d.Auth, d.CookieSecure, h) }
	protected := func(h http.HandlerFunc) http.Handler { return RequireSession(d.Auth, d.CookieSecure, h) }

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.HandleFunc("GET /readyz", HandleReadyz(d.DB))
	mux.Handle("GET /static/", view.StaticHandler())

	mux.Handle("GET /", optional(HandleHome))
	mux.Handle("GET /premium", optional(HandlePremium))
	mux.HandleFunc("POST /api/register", authHandler.HandleAPIRegister)

	mux.HandleFunc("POST /auth/signin", authHandler.HandleSignIn)
	mux.HandleFunc("POST /auth/signup", authHandler.HandleSignUp)
	mux.HandleFunc("GET /auth/oauth/{provider}", authHandler.HandleOAuthStart)
	mux.HandleFunc("GET /auth/callback", authHandler.HandleOAuthCallback)
	mux.Handle("POST /auth/signout", optional(authHandler.HandleSignOut))

	mux.Handle("GET /register", optional(authHandler.HandleRegisterPage))
	mux.HandleFunc("POST /register", authHandler.HandleRegisterSubmit)
	mux.Handle("GET /forgot-password", optional(authHandler.HandleForgotPasswordPage))
	mux.HandleFunc("POST /forgot-password", authHandler.HandleForgotPasswordSubmit)

	mux.Handle("GET /dashboard", protected(dashboardHandler.HandleDashboard))
	mux.Handle("GET /dashboard/events", optional(dashboardHandler.HandleEvents))
	mux.Handle("GET /dashboard/{section}", protected(dashboardHandler.HandleSection))
}
