// Package i18n holds the UI dictionaries and the dotted-path lookup used by
// every page.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when nothing else selects a language.
const DefaultLanguage = "es"

// Dictionary is the nested mapping of UI strings for one language. Values are
// strings, lists, or further dictionaries.
type Dictionary map[string]any

// Language is a supported language code and its own-language label.
type Language struct {
	Code  string
	Label string
}

// SupportedLanguages lists the languages offered in the language switcher.
var SupportedLanguages = []Language{
	{Code: "es", Label: "Espanol"},
	{Code: "en", Label: "English"},
	{Code: "it", Label: "Italiano"},
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Bundle holds the dictionaries for every loaded language.
type Bundle struct {
	dictionaries map[string]Dictionary
	fallback     string
	tags         []language.Tag
	matcher      language.Matcher
	matchCodes   []string
}

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
)

// Default returns the process-wide bundle built from the embedded locales.
func Default() *Bundle {
	defaultOnce.Do(func() {
		b, err := Load(embeddedLocales, DefaultLanguage)
		if err != nil {
			panic(err)
		}
		defaultBundle = b
	})
	return defaultBundle
}

// New loads the embedded dictionaries with fallback as the default language.
func New(fallback string) (*Bundle, error) {
	return Load(embeddedLocales, fallback)
}

// Load reads every locales/<code>.yaml file from fsys. fallback must be one
// of the loaded languages.
func Load(fsys fs.FS, fallback string) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale files found")
	}
	sort.Strings(paths)

	b := &Bundle{dictionaries: make(map[string]Dictionary, len(paths)), fallback: fallback}
	for _, p := range paths {
		code := strings.TrimSuffix(path.Base(p), path.Ext(p))
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", p, err)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		b.dictionaries[code] = Dictionary(normalize(raw).(map[string]any))
		b.tags = append(b.tags, tag)
	}

	if _, ok := b.dictionaries[fallback]; !ok {
		return nil, fmt.Errorf("fallback language %q has no dictionary", fallback)
	}

	// The matcher's first tag is its default.
	ordered := []language.Tag{language.Make(fallback)}
	b.matchCodes = []string{fallback}
	for _, tag := range b.tags {
		if tag.String() != fallback {
			ordered = append(ordered, tag)
			b.matchCodes = append(b.matchCodes, tag.String())
		}
	}
	b.matcher = language.NewMatcher(ordered)
	return b, nil
}

// Languages returns the loaded language codes in sorted order.
func (b *Bundle) Languages() []string {
	out := make([]string, 0, len(b.dictionaries))
	for code := range b.dictionaries {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Has reports whether code has a dictionary.
func (b *Bundle) Has(code string) bool {
	_, ok := b.dictionaries[code]
	return ok
}

// Fallback returns the default language code.
func (b *Bundle) Fallback() string {
	return b.fallback
}

// Translator returns a translator for code, or for the fallback language when
// code is unknown.
func (b *Bundle) Translator(code string) *Translator {
	if dict, ok := b.dictionaries[code]; ok {
		return &Translator{Lang: code, dict: dict}
	}
	return &Translator{Lang: b.fallback, dict: b.dictionaries[b.fallback]}
}

// Dictionary returns the raw dictionary for code.
func (b *Bundle) Dictionary(code string) (Dictionary, bool) {
	d, ok := b.dictionaries[code]
	return d, ok
}

// Match picks the best supported language for an Accept-Language header value.
func (b *Bundle) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.fallback
	}
	return b.matchCodes[idx]
}

// Parse normalizes a user-supplied code ("EN", "it-IT") to a loaded language.
func (b *Bundle) Parse(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	code := base.String()
	if !b.Has(code) {
		return "", false
	}
	return code, true
}

// normalize rewrites a decoded tree so that every nested mapping is a plain
// map[string]any, whatever map type the decoder chose.
func normalize(v any) any {
	switch x := v.(type) {
	case Dictionary:
		return normalize(map[string]any(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, child := range x {
			out[k] = normalize(child)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, child := range x {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, child := range x {
			out[i] = normalize(child)
		}
		return out
	default:
		return v
	}
}

// asMap reports v as a plain mapping when it is one.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Dictionary:
		return m, true
	}
	return nil, false
}
