package i18n_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/tavoloai/tavolo-web/internal/i18n"
)

func TestDefault_LoadsAllLanguages(t *testing.T) {
	got := i18n.Default().Languages()
	want := []string{"en", "es", "it"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("languages mismatch (-want +got):\n%s", diff)
	}
}

func TestDefault_EveryKeyInEveryLanguage(t *testing.T) {
	if report := i18n.Default().MissingKeys(); len(report) > 0 {
		t.Fatalf("dictionaries are out of sync: %v", report)
	}
}

func TestMissing(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/es.yaml": {Data: []byte("a:\n  b: \"x\"\n  c: \"y\"\nd: \"z\"\n")},
		"locales/en.yaml": {Data: []byte("a:\n  b: \"x\"\nd:\n  e: \"w\"\n")},
	}
	b, err := i18n.Load(fsys, "es")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	es, _ := b.Dictionary("es")
	en, _ := b.Dictionary("en")

	if diff := cmp.Diff([]string{"a.c"}, i18n.Missing(es, en)); diff != "" {
		t.Fatalf("Missing(es, en) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"d"}, i18n.Missing(en, es)); diff != "" {
		t.Fatalf("Missing(en, es) mismatch (-want +got):\n%s", diff)
	}
}

func TestMissing_NestedSections(t *testing.T) {
	en, _ := i18n.Default().Dictionary("en")
	partial := i18n.Dictionary{"header": i18n.Dictionary{"nav": map[string]any{"pricing": "x"}}}

	got := i18n.Missing(en, partial)
	for _, want := range []string{"header.login", "header.nav.faq", "errors"} {
		if !contains(got, want) {
			t.Errorf("Missing(en, partial) lacks %q", want)
		}
	}
	if contains(got, "header.nav.pricing") {
		t.Error("header.nav.pricing is present in both and must not be reported")
	}
}

func TestLoad_NestedSectionsArePlainMaps(t *testing.T) {
	en, _ := i18n.Default().Dictionary("en")
	if _, ok := en["header"].(map[string]any); !ok {
		t.Fatalf("header section decoded as %T", en["header"])
	}
	items, _ := en["features"].(map[string]any)["items"].([]any)
	if len(items) == 0 {
		t.Fatal("features.items missing")
	}
	if _, ok := items[0].(map[string]any); !ok {
		t.Fatalf("list entry decoded as %T", items[0])
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestLoad_Errors(t *testing.T) {
	if _, err := i18n.Load(fstest.MapFS{}, "es"); err == nil {
		t.Fatal("expected error for empty filesystem")
	}
	fsys := fstest.MapFS{"locales/en.yaml": {Data: []byte("a: \"b\"\n")}}
	if _, err := i18n.Load(fsys, "es"); err == nil {
		t.Fatal("expected error for missing fallback dictionary")
	}
}

func TestNew_Fallback(t *testing.T) {
	b, err := i18n.New("en")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := b.Match("fr-FR"); got != "en" {
		t.Errorf("Match(fr-FR) = %q, want en", got)
	}
	if _, err := i18n.New("de"); err == nil {
		t.Error("expected error for a language without a dictionary")
	}
}

func TestMatch(t *testing.T) {
	b := i18n.Default()
	tests := map[string]string{
		"en-US,en;q=0.9":  "en",
		"it-IT":           "it",
		"fr-FR,de;q=0.8":  "es",
		"es-AR,en;q=0.5":  "es",
		"not a language!": "es",
	}
	for header, want := range tests {
		if got := b.Match(header); got != want {
			t.Fatalf("Match(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestResolveLanguage(t *testing.T) {
	b := i18n.Default()

	req := httptest.NewRequest(http.MethodGet, "/?lang=EN", nil)
	req.AddCookie(&http.Cookie{Name: i18n.LangCookieName, Value: "it"})
	code, persist := b.ResolveLanguage(req)
	if code != "en" || !persist {
		t.Fatalf("query param: got (%q, %v)", code, persist)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: i18n.LangCookieName, Value: "it"})
	req.Header.Set("Accept-Language", "en")
	code, persist = b.ResolveLanguage(req)
	if code != "it" || persist {
		t.Fatalf("cookie: got (%q, %v)", code, persist)
	}

	req = httptest.NewRequest(http.MethodGet, "/?lang=xx", nil)
	req.Header.Set("Accept-Language", "en-GB")
	if code, _ = b.ResolveLanguage(req); code != "en" {
		t.Fatalf("accept-language: got %q", code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if code, _ = b.ResolveLanguage(req); code != "es" {
		t.Fatalf("fallback: got %q", code)
	}
}

func TestLanguageURL(t *testing.T) {
	if got := i18n.LanguageURL("/dashboard", "a=1&lang=es", "it"); got != "/dashboard?a=1&lang=it" {
		t.Fatalf("unexpected URL %q", got)
	}
	if got := i18n.LanguageURL("", "", "en"); got != "/?lang=en" {
		t.Fatalf("unexpected URL %q", got)
	}
}
