// Package view renders the site's pages. Markup lives in embedded
// html/template files; each page is exposed as a templ.Component so handlers
// render it the same way as any other component.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/tavoloai/tavolo-web/internal/domain"
	"github.com/tavoloai/tavolo-web/internal/i18n"
)

// DatastarURL is the client bundle matching the datastar-go SDK.
const DatastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"

var (
	//go:embed templates/*.html
	templateFS embed.FS

	//go:embed static
	staticFS embed.FS
)

var funcs = template.FuncMap{
	"vars":        varsOf,
	"message":     newMessage,
	"inc":         func(i int) int { return i + 1 },
	"splitOn":     splitOn,
	"datastarURL": func() string { return DatastarURL },
}

var base, pages = mustParse()

func mustParse() (*template.Template, map[string]*template.Template) {
	b := template.Must(template.New("site").Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html", "templates/partials.html"))

	sets := make(map[string]*template.Template)
	for _, name := range []string{"home", "register", "forgot_password", "premium", "dashboard", "section"} {
		clone := template.Must(b.Clone())
		sets[name] = template.Must(clone.ParseFS(templateFS, "templates/"+name+".html"))
	}
	return b, sets
}

func render(set, name string, data any) templ.Component {
	t := pages[set].Lookup(name)
	if t == nil {
		panic(fmt.Sprintf("view: template %q not found in %q", name, set))
	}
	return templ.FromGoHTML(t, data)
}

// StaticHandler serves the embedded assets under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

// LanguageOption is one entry of the language switcher.
type LanguageOption struct {
	Code   string
	Label  string
	URL    string
	Active bool
}

// Page carries what every page needs: the translator, the signed-in user
// (nil for visitors) and the language switcher links for the current URL.
type Page struct {
	T         *i18n.Translator
	User      *domain.User
	Languages []LanguageOption
	// Alert is an error shown above the page content, already translated.
	Alert string
}

// NewPage builds the common page data for a request path and query.
func NewPage(t *i18n.Translator, path, rawQuery string, user *domain.User) Page {
	langs := make([]LanguageOption, 0, len(i18n.SupportedLanguages))
	for _, l := range i18n.SupportedLanguages {
		langs = append(langs, LanguageOption{
			Code:   l.Code,
			Label:  l.Label,
			URL:    i18n.LanguageURL(path, rawQuery, l.Code),
			Active: l.Code == t.Lang,
		})
	}
	return Page{T: t, User: user, Languages: langs}
}

// DisplayName is the name to greet the user with.
func (p Page) DisplayName() string {
	if p.User == nil {
		return ""
	}
	if p.User.Name != "" {
		return p.User.Name
	}
	if local, _, ok := strings.Cut(p.User.Email, "@"); ok {
		return local
	}
	return p.User.Email
}

// Message is an inline form status line.
type Message struct {
	ID   string
	Kind string
	Text string
}

func newMessage(id, kind, text string) Message {
	return Message{ID: id, Kind: kind, Text: text}
}

func varsOf(pairs ...any) (i18n.Vars, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("vars: odd number of arguments")
	}
	out := make(i18n.Vars, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("vars: key %v is not a string", pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}

func splitOn(s, sep string) []string {
	before, after, _ := strings.Cut(s, sep)
	return []string{before, after}
}
