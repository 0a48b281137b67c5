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

// HandleRegisterPage renders the standalone registration form.
// GET /register
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	view.RegisterPage(pageFor(r)).Render(r.Context(), w)
}

// HandleRegisterSubmit registers the account, signs it in and swaps the form
// for the confirmation card.
// POST /register (datastar)
func (h *AuthHandler) HandleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	t := i18n.FromContext(r.Context())

	var sig struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Business string `json:"business"`
	}
	if err := datastar.ReadSignals(r, &sig); err != nil {
		patchMessage(w, r, "register-message", view.MessageError, t.T("errors.invalidBody"))
		return
	}
	if !h.auth.Configured() {
		patchMessage(w, r, "register-message", view.MessageError, t.T("errors.notConfigured"))
		return
	}
	if !h.allow(r) {
		patchMessage(w, r, "register-message", view.MessageError, t.T("errors.rateLimited"))
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:    sig.Email,
		Password: sig.Password,
		Name:     sig.Name,
		Business: sig.Business,
	})
	if err != nil {
		patchMessage(w, r, "register-message", view.MessageError, authErrorText(t, err, "errors.registerFailed"))
		return
	}

	sess, err := h.auth.SignIn(r.Context(), user.Email, sig.Password)
	if err != nil {
		patchMessage(w, r, "register-message", view.MessageError, authErrorText(t, err, "errors.registerFailed"))
		return
	}

	setSessionCookies(w, sess, h.cookieSecure)
	p := pageFor(r)
	p.User = sess.User
	datastar.NewSSE(w, r).PatchElementTempl(view.RegisterCreated(p, user))
}

// HandleForgotPasswordPage renders the password recovery form.
// GET /forgot-password
func (h *AuthHandler) HandleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	view.ForgotPasswordPage(pageFor(r)).Render(r.Context(), w)
}

// HandleForgotPasswordSubmit sends a recovery email.
// POST /forgot-password (datastar)
func (h *AuthHandler) HandleForgotPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	t := i18n.FromContext(r.Context())

	var sig struct {
		Email string `json:"email"`
	}
	if err := datastar.ReadSignals(r, &sig); err != nil {
		patchMessage(w, r, "forgot-message", view.MessageError, t.T("errors.invalidBody"))
		return
	}
	email := strings.TrimSpace(sig.Email)
	if !service.ValidEmail(email) {
		patchMessage(w, r, "forgot-message", view.MessageError, t.T("errors.invalidEmail"))
		return
	}
	if !h.allow(r) {
		patchMessage(w, r, "forgot-message", view.MessageError, t.T("errors.rateLimited"))
		return
	}

	if err := h.auth.ResetPassword(r.Context(), email); err != nil {
		var perr *domain.ProviderError
		switch {
		case errors.Is(err, domain.ErrNotConfigured):
			patchMessage(w, r, "forgot-message", view.MessageError, t.T("errors.notConfigured"))
		case errors.As(err, &perr) && perr.Status == http.StatusTooManyRequests:
			patchMessage(w, r, "forgot-message", view.MessageError, perr.Message)
		default:
			slog.Error("reset password", "error", err)
			patchMessage(w, r, "forgot-message", view.MessageError, t.T("errors.resetFailed"))
		}
		return
	}

	datastar.NewSSE(w, r).PatchElementTempl(view.ForgotPasswordSent(pageFor(r), email))
}
