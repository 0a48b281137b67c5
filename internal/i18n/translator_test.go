package i18n_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tavoloai/tavolo-web/internal/i18n"
)

func TestTranslator_ResolvesNestedKeys(t *testing.T) {
	tr := i18n.Default().Translator("en")

	if got := tr.T("header.nav.pricing"); got != "Pricing" {
		t.Fatalf("expected Pricing, got %q", got)
	}
	if got := i18n.Default().Translator("es").T("hero.primaryCta"); got != "Empezar gratis" {
		t.Fatalf("expected Empezar gratis, got %q", got)
	}
}

func TestTranslator_UnresolvedReturnsKey(t *testing.T) {
	tr := i18n.Default().Translator("it")

	tests := []string{
		"hero.missing",
		"nope",
		"header.nav",        // resolves to a map, not a string
		"features.items",    // resolves to a list
		"features.items.0",  // lists are not indexed
		"hero.title.deeper", // walks past a string
		"",
	}
	for _, key := range tests {
		if got := tr.T(key); got != key {
			t.Fatalf("T(%q) = %q, want the key back", key, got)
		}
	}
}

func TestTranslator_Interpolates(t *testing.T) {
	tr := i18n.Default().Translator("en")

	if got := tr.T("demo.progressLabel", i18n.Vars{"value": 75}); got != "75% complete" {
		t.Fatalf("expected '75%% complete', got %q", got)
	}
	if got := tr.T("features.dotAria", i18n.Vars{"index": 3}); got != "Go to slide 3" {
		t.Fatalf("expected 'Go to slide 3', got %q", got)
	}
	// Without vars, placeholders are left alone.
	if got := tr.T("features.dotAria"); got != "Go to slide {{index}}" {
		t.Fatalf("expected raw template, got %q", got)
	}
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     i18n.Vars
		want     string
	}{
		{"all placeholders", "{{a}} and {{b}} and {{a}}", i18n.Vars{"a": "x", "b": 2}, "x and 2 and x"},
		{"whitespace trimmed", "Hi {{ name }}!", i18n.Vars{"name": "Ana"}, "Hi Ana!"},
		{"missing becomes empty", "Hi {{name}}!", i18n.Vars{}, "Hi !"},
		{"nil vars untouched", "Hi {{name}}!", nil, "Hi {{name}}!"},
		{"no placeholders", "plain", i18n.Vars{"x": 1}, "plain"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := i18n.Interpolate(tc.template, tc.vars); got != tc.want {
				t.Fatalf("Interpolate(%q) = %q, want %q", tc.template, got, tc.want)
			}
		})
	}
}

func TestTranslator_ListsAndItems(t *testing.T) {
	tr := i18n.Default().Translator("es")

	features := tr.Strings("pricing.freePlan.features")
	if len(features) != 6 || features[0] != "1 menu predisenado listo para usar" {
		t.Fatalf("unexpected free plan features: %v", features)
	}

	steps := tr.Items("howItWorks.steps")
	want := []map[string]string{
		{"title": "Crea tu menu", "description": "Sube fotos y precios."},
		{"title": "Mejora con IA", "description": "Imagenes y textos optimizados automaticamente."},
		{"title": "Comparte y mide", "description": "QR en mesa, banners listos y estadisticas en vivo."},
	}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}

	if tr.Strings("hero.title") != nil {
		t.Fatal("expected nil for a non-list key")
	}
}

func TestTranslator_UnknownLanguageFallsBack(t *testing.T) {
	tr := i18n.Default().Translator("de")
	if tr.Lang != i18n.DefaultLanguage {
		t.Fatalf("expected fallback %q, got %q", i18n.DefaultLanguage, tr.Lang)
	}
}
