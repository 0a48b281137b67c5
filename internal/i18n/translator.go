package i18n

import (
	"fmt"
	"regexp"
	"strings"
)

// Vars supplies values for {{placeholder}} tokens.
type Vars map[string]any

var placeholderPattern = regexp.MustCompile(`{{(.*?)}}`)

// Translator resolves keys against one language's dictionary.
type Translator struct {
	Lang string
	dict Dictionary
}

// T walks the dotted key path and returns the string found there with
// placeholders substituted. When the path does not resolve to a string, T
// returns the key itself.
func (t *Translator) T(key string, vars ...Vars) string {
	value, ok := t.resolve(key).(string)
	if !ok {
		return key
	}
	if len(vars) == 0 {
		return value
	}
	return Interpolate(value, vars[0])
}

// Strings returns the list of strings at key, or nil.
func (t *Translator) Strings(key string) []string {
	list, ok := t.resolve(key).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Items returns the list of string-valued records at key, such as feature
// cards or FAQ entries, or nil.
func (t *Translator) Items(key string) []map[string]string {
	list, ok := t.resolve(key).([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]string, 0, len(list))
	for _, v := range list {
		m, ok := asMap(v)
		if !ok {
			continue
		}
		item := make(map[string]string, len(m))
		for k, field := range m {
			item[k] = fmt.Sprint(field)
		}
		out = append(out, item)
	}
	return out
}

// resolve descends through nested dictionaries only; lists are never indexed.
func (t *Translator) resolve(key string) any {
	var current any = map[string]any(t.dict)
	for _, part := range strings.Split(key, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

// Interpolate replaces every {{ name }} in template with vars[name]. Names
// missing from vars become the empty string. A nil vars leaves template as is.
func Interpolate(template string, vars Vars) string {
	if vars == nil {
		return template
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := strings.TrimSpace(token[2 : len(token)-2])
		v, ok := vars[name]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})
}
