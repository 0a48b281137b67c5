package handler

import (
	"net/http"

	"github.com/tavoloai/tavolo-web/internal/i18n"
	"github.com/tavoloai/tavolo-web/internal/view"
)

// alertKeys maps the ?error= codes used by redirects to dictionary keys.
var alertKeys = map[string]string{
	"oauth":          "errors.googleFailed",
	"not_configured": "errors.notConfigured",
}

// pageFor builds the shared view data for r.
func pageFor(r *http.Request) view.Page {
	t := i18n.FromContext(r.Context())
	p := view.NewPage(t, r.URL.Path, r.URL.RawQuery, UserFromContext(r.Context()))
	if key, ok := alertKeys[r.URL.Query().Get("error")]; ok {
		p.Alert = t.T(key)
	}
	return p
}

// HandleHome renders the marketing home page.
func HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	view.HomePage(pageFor(r)).Render(r.Context(), w)
}

// HandlePremium renders the Premium plan page.
func HandlePremium(w http.ResponseWriter, r *http.Request) {
	view.PremiumPage(pageFor(r)).Render(r.Context(), w)
}
