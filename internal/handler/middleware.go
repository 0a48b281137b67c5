package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/tavoloai/tavolo-web/internal/domain"
	"github.com/tavoloai/tavolo-web/internal/i18n"
	"github.com/tavoloai/tavolo-web/internal/service"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the session resolved by the auth middleware, or nil.
func SessionFromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionContextKey).(*domain.Session)
	return sess
}

// UserFromContext extracts the authenticated user from the request context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *domain.User {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.User
	}
	return nil
}

// RequireSession guards dashboard routes. Visitors without a valid session are
// sent to the home page with 303 See Other; an expired access token is
// refreshed and the new cookies are written before next runs.
func RequireSession(auth *service.AuthService, cookieSecure bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := resolveSession(w, r, auth, cookieSecure)
		if sess == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, sess)))
	})
}

// OptionalSession attaches the session when there is one but lets every
// request through.
func OptionalSession(auth *service.AuthService, cookieSecure bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := resolveSession(w, r, auth, cookieSecure); sess != nil {
			r = r.WithContext(context.WithValue(r.Context(), sessionContextKey, sess))
		}
		next.ServeHTTP(w, r)
	})
}

func resolveSession(w http.ResponseWriter, r *http.Request, auth *service.AuthService, cookieSecure bool) *domain.Session {
	access, refresh := sessionCookies(r)
	if access == "" && refresh == "" {
		return nil
	}

	sess, refreshed, err := auth.Session(r.Context(), access, refresh)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			clearSessionCookies(w, cookieSecure)
		case errors.Is(err, domain.ErrNotConfigured):
		default:
			slog.Error("resolve session", "error", err)
		}
		return nil
	}
	if refreshed {
		setSessionCookies(w, sess, cookieSecure)
	}
	return sess
}

// Language resolves the request language and stores its translator in the
// context. A language chosen with ?lang= is remembered in a cookie.
func Language(bundle *i18n.Bundle, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code, persist := bundle.ResolveLanguage(r)
		if persist {
			i18n.SetLanguageCookie(w, code)
		}
		w.Header().Set("Content-Language", code)
		ctx := i18n.WithTranslator(r.Context(), bundle.Translator(code))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SecurityHeaders sets the response headers every page carries. Datastar
// evaluates expressions and runs patched scripts, hence the script-src allowances.
func SecurityHeaders(next http.Handler) http.Handler {
	const csp = "default-src 'self'; " +
		"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://cdn.jsdelivr.net; " +
		"style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:; " +
		"connect-src 'self'; " +
		"form-action 'self'; " +
		"frame-ancestors 'none'"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", csp)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// clientIP keys rate limiting. Forwarding headers are ignored because they
// are client-controlled.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
