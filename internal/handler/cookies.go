package handler

import (
	"net/http"
	"time"

	"github.com/tavoloai/tavolo-web/internal/domain"
)

const (
	accessCookieName  = "tavolo_access"
	refreshCookieName = "tavolo_refresh"
	pkceCookieName    = "tavolo_pkce"

	refreshCookieMaxAge = 30 * 24 * time.Hour
	pkceCookieMaxAge    = 10 * time.Minute
)

func sessionCookies(r *http.Request) (access, refresh string) {
	if c, err := r.Cookie(accessCookieName); err == nil {
		access = c.Value
	}
	if c, err := r.Cookie(refreshCookieName); err == nil {
		refresh = c.Value
	}
	return access, refresh
}

// setSessionCookies stores both tokens. The access cookie outlives the token
// itself so an expired token can still be presented for refresh.
func setSessionCookies(w http.ResponseWriter, sess *domain.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookieName,
		Value:    sess.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(refreshCookieMaxAge.Seconds()),
	})
	if sess.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     refreshCookieName,
			Value:    sess.RefreshToken,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(refreshCookieMaxAge.Seconds()),
		})
	}
}

func clearSessionCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}

func setPKCECookie(w http.ResponseWriter, verifier string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     pkceCookieName,
		Value:    verifier,
		Path:     "/auth/callback",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(pkceCookieMaxAge.Seconds()),
	})
}

func clearPKCECookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     pkceCookieName,
		Value:    "",
		Path:     "/auth/callback",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
