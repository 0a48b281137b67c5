package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/tavoloai/tavolo-web/internal/domain"
	"github.com/tavoloai/tavolo-web/internal/service"
	"github.com/tavoloai/tavolo-web/internal/view"
)

// DefaultSessionCheckInterval is how often an open dashboard re-validates its session.
const DefaultSessionCheckInterval = time.Minute

// DashboardHandler serves the dashboard pages and their session watch stream.
type DashboardHandler struct {
	dashboard  *service.DashboardService
	auth       *service.AuthService
	checkEvery time.Duration
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, auth *service.AuthService, checkEvery time.Duration) *DashboardHandler {
	if checkEvery <= 0 {
		checkEvery = DefaultSessionCheckInterval
	}
	return &DashboardHandler{dashboard: dashboard, auth: auth, checkEvery: checkEvery}
}

// HandleDashboard renders the dashboard home with the widget data.
// GET /dashboard
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if UserFromContext(r.Context()) == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	view.DashboardPage(pageFor(r), service.DashboardSections, h.dashboard.Snapshot()).Render(r.Context(), w)
}

// HandleSection renders a dashboard section placeholder.
// GET /dashboard/{section}
func (h *DashboardHandler) HandleSection(w http.ResponseWriter, r *http.Request) {
	if UserFromContext(r.Context()) == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	section := r.PathValue("section")
	if !service.ValidSection(section) {
		http.NotFound(w, r)
		return
	}
	view.DashboardSection(pageFor(r), service.DashboardSections, section).Render(r.Context(), w)
}

// HandleEvents keeps an open dashboard in step with the session. The stream
// sends the browser home when the user signs out elsewhere, and back through
// the route guard when a periodic check finds the access token no longer valid.
// GET /dashboard/events (datastar SSE)
func (h *DashboardHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	sse := datastar.NewSSE(w, r)
	if sess == nil || sess.User == nil {
		sse.Redirect("/")
		return
	}

	events, cancel := h.auth.Events().Subscribe(sess.User.ID)
	defer cancel()
	slog.Debug("dashboard stream opened", "user", sess.User.ID, "streams", h.auth.Events().Subscribers(sess.User.ID))

	ticker := time.NewTicker(h.checkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev == domain.AuthEventSignedOut {
				sse.Redirect("/")
				return
			}
		case <-ticker.C:
			_, _, err := h.auth.Session(r.Context(), sess.AccessToken, "")
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrUnauthorized) {
				slog.Warn("dashboard session check", "error", err)
				continue
			}
			// A refresh token may still be good: reload through the guard,
			// which refreshes or redirects home.
			target := "/"
			if sess.RefreshToken != "" {
				target = returnPath(r)
			}
			sse.Redirect(target)
			return
		}
	}
}

// returnPath is the dashboard page the stream was opened from.
func returnPath(r *http.Request) string {
	if ref, err := url.Parse(r.Referer()); err == nil && strings.HasPrefix(ref.Path, "/dashboard") && ref.Path != "/dashboard/events" {
		return ref.Path
	}
	return "/dashboard"
}
