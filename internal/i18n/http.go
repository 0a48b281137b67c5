package i18n

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the visitor's language preference.
	LangCookieName = "tavolo_lang"
)

// ResolveLanguage picks the language for a request: the lang query parameter,
// then the language cookie, then Accept-Language, then the fallback. The bool
// reports whether the query parameter chose it and should be persisted.
func (b *Bundle) ResolveLanguage(r *http.Request) (string, bool) {
	if code, ok := b.Parse(r.URL.Query().Get(LangParam)); ok {
		return code, true
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if code, ok := b.Parse(cookie.Value); ok {
			return code, false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		return b.Match(accept), false
	}
	return b.fallback, false
}

// SetLanguageCookie persists the selected language for a year.
func SetLanguageCookie(w http.ResponseWriter, code string) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    code,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// LanguageURL returns path with the lang query parameter set to code.
func LanguageURL(path, rawQuery, code string) string {
	if strings.TrimSpace(path) == "" {
		path = "/"
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	query.Set(LangParam, code)
	return (&url.URL{Path: path, RawQuery: query.Encode()}).String()
}

type contextKey struct{}

// WithTranslator stores t in ctx.
func WithTranslator(ctx context.Context, t *Translator) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the request translator, or the default bundle's
// fallback translator when none was stored.
func FromContext(ctx context.Context) *Translator {
	if t, ok := ctx.Value(contextKey{}).(*Translator); ok && t != nil {
		return t
	}
	return Default().Translator(Default().Fallback())
}
