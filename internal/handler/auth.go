package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/tavoloai/tavolo-web/internal/domain"
	"github.com/tavoloai/tavolo-web/internal/i18n"
	"github.com/tavoloai/tavolo-web/internal/service"
	"github.com/tavoloai/tavolo-web/internal/view"
)

// oauthProviders lists the OAuth providers offered on the sign-in modal.
var oauthProviders = map[string]bool{"google": true}

// AuthHandler handles sign-in, sign-up, registration and sign-out.
type AuthHandler struct {
	auth         *service.AuthService
	limiter      *service.RateLimiter
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. limiter may be nil.
func NewAuthHandler(auth *service.AuthService, limiter *service.RateLimiter, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter, cookieSecure: cookieSecure}
}

func (h *AuthHandler) allow(r *http.Request) bool {
	return h.limiter == nil || h.limiter.Allow(clientIP(r))
}

// HandleAPIRegister creates an account through the provider's admin API.
// POST /api/register
// Request:  {"email":"...","password":"...","name":"...","business":"..."}
// Response: {"user": {...}} or {"error": "..."}
func (h *AuthHandler) HandleAPIRegister(w http.ResponseWriter, r *http.Request) {
	t := i18n.FromContext(r.Context())

	if !h.auth.Configured() {
		writeError(w, http.StatusInternalServerError, t.T("errors.notConfigured"))
		return
	}
	if !h.allow(r) {
		writeError(w, http.StatusTooManyRequests, t.T("errors.rateLimited"))
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Business string `json:"business"`
	}
	if err := readJSON(w, r, &req); err != nil {
		slog.Error("decode register request", "error", err)
		writeError(w, http.StatusInternalServerError, t.T("errors.registerFailed"))
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Business: req.Business,
	})
	if err != nil {
		var perr *domain.ProviderError
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, t.T("errors.required"))
		case errors.As(err, &perr):
			writeError(w, http.StatusBadRequest, perr.Message)
		case errors.Is(err, domain.ErrNotConfigured):
			writeError(w, http.StatusInternalServerError, t.T("errors.notConfigured"))
		default:
			slog.Error("register user", "error", err)
			writeError(w, http.StatusInternalServerError, t.T("errors.registerFailed"))
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": userPayload(user)})
}

type credentialSignals struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignIn signs in from the auth modal.
// POST /auth/signin (datastar)
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	t := i18n.FromContext(r.Context())

	var sig credentialSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		patchMessage(w, r, "auth-message", view.MessageError, t.T("errors.invalidBody"))
		return
	}
	if !h.allow(r) {
		patchMessage(w, r, "auth-message", view.MessageError, t.T("errors.rateLimited"))
		return
	}

	sess, err := h.auth.SignIn(r.Context(), sig.Email, sig.Password)
	if err != nil {
		patchMessage(w, r, "auth-message", view.MessageError, authErrorText(t, err, "errors.requestFailed"))
		return
	}

	setSessionCookies(w, sess, h.cookieSecure)
	sse := datastar.NewSSE(w, r)
	sse.PatchElementTempl(view.FormMessage("auth-message", view.MessageInfo, t.T("authModal.signedIn")))
	sse.Redirect("/dashboard")
}

// HandleSignUp creates an account from the auth modal. When the provider
// confirms by email, the visitor is told to check their inbox.
// POST /auth/signup (datastar)
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	t := i18n.FromContext(r.Context())

	var sig credentialSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		patchMessage(w, r, "auth-message", view.MessageError, t.T("errors.invalidBody"))
		return
	}
	if !h.allow(r) {
		patchMessage(w, r, "auth-message", view.MessageError, t.T("errors.rateLimited"))
		return
	}

	_, sess, err := h.auth.SignUp(r.Context(), sig.Email, sig.Password)
	if err != nil {
		patchMessage(w, r, "auth-message", view.MessageError, authErrorText(t, err, "errors.requestFailed"))
		return
	}
	if sess == nil {
		patchMessage(w, r, "auth-message", view.MessageInfo, t.T("authModal.checkEmail"))
		return
	}

	setSessionCookies(w, sess, h.cookieSecure)
	sse := datastar.NewSSE(w, r)
	sse.PatchElementTempl(view.FormMessage("auth-message", view.MessageInfo, t.T("authModal.signedIn")))
	sse.Redirect("/dashboard")
}

// HandleOAuthStart redirects to the OAuth provider.
// GET /auth/oauth/{provider}
func (h *AuthHandler) HandleOAuthStart(w http.ResponseWriter, r *http.Request) {
	provider := strings.ToLower(r.PathValue("provider"))
	if !oauthProviders[provider] {
		http.NotFound(w, r)
		return
	}

	start, err := h.auth.StartOAuth(provider)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			http.Redirect(w, r, "/?error=not_configured", http.StatusSeeOther)
			return
		}
		slog.Error("start oauth", "provider", provider, "error", err)
		http.Redirect(w, r, "/?error=oauth", http.StatusSeeOther)
		return
	}

	setPKCECookie(w, start.Verifier, h.cookieSecure)
	http.Redirect(w, r, start.URL, http.StatusSeeOther)
}

// HandleOAuthCallback completes the OAuth flow and opens the dashboard.
// GET /auth/callback?code=...
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	clearPKCECookie(w, h.cookieSecure)

	q := r.URL.Query()
	if desc := q.Get("error_description"); desc != "" || q.Get("error") != "" {
		slog.Warn("oauth provider returned error", "error", q.Get("error"), "description", desc)
		http.Redirect(w, r, "/?error=oauth", http.StatusSeeOther)
		return
	}

	verifier := ""
	if c, err := r.Cookie(pkceCookieName); err == nil {
		verifier = c.Value
	}

	sess, err := h.auth.CompleteOAuth(r.Context(), q.Get("code"), verifier)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidInput) {
			slog.Error("complete oauth", "error", err)
		}
		http.Redirect(w, r, "/?error=oauth", http.StatusSeeOther)
		return
	}

	setSessionCookies(w, sess, h.cookieSecure)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleSignOut revokes the session, clears the cookies and returns home.
// POST /auth/signout
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	access, _ := sessionCookies(r)
	userID := ""
	if user := UserFromContext(r.Context()); user != nil {
		userID = user.ID
	}

	if err := h.auth.SignOut(r.Context(), userID, access); err != nil {
		slog.Error("sign out", "error", err)
	}
	clearSessionCookies(w, h.cookieSecure)

	if r.Header.Get("Datastar-Request") == "true" {
		datastar.NewSSE(w, r).Redirect("/")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// patchMessage answers a datastar request by replacing the status line id.
func patchMessage(w http.ResponseWriter, r *http.Request, id, kind, text string) {
	sse := datastar.NewSSE(w, r)
	sse.PatchElementTempl(view.FormMessage(id, kind, text))
}

// authErrorText turns an auth service error into the message shown to the
// visitor. Provider messages are relayed verbatim.
func authErrorText(t *i18n.Translator, err error, fallbackKey string) string {
	var perr *domain.ProviderError
	switch {
	case errors.As(err, &perr):
		return perr.Message
	case errors.Is(err, domain.ErrInvalidInput):
		return t.T("errors.required")
	case errors.Is(err, domain.ErrNotConfigured):
		return t.T("errors.notConfigured")
	default:
		slog.Error("auth request", "error", err)
		return t.T(fallbackKey)
	}
}
