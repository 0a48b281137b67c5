package i18n

import (
	"sort"
)

// Missing returns the dotted keys that are present in base but absent from
// other. Lists are compared as leaves; their lengths may differ.
func Missing(base, other Dictionary) []string {
	var out []string
	walkMissing("", map[string]any(base), map[string]any(other), &out)
	sort.Strings(out)
	return out
}

// MissingKeys compares every language against the fallback language in both
// directions and returns problems keyed by language code.
func (b *Bundle) MissingKeys() map[string][]string {
	report := map[string][]string{}
	base, _ := b.Dictionary(b.fallback)
	for _, code := range b.Languages() {
		if code == b.fallback {
			continue
		}
		dict, _ := b.Dictionary(code)
		if keys := Missing(base, dict); len(keys) > 0 {
			report[code] = keys
		}
		if keys := Missing(dict, base); len(keys) > 0 {
			report[b.fallback] = append(report[b.fallback], keys...)
		}
	}
	return report
}

func walkMissing(prefix string, base, other map[string]any, out *[]string) {
	for key, value := range base {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		counterpart, ok := other[key]
		if !ok {
			*out = append(*out, full)
			continue
		}
		baseMap, isMap := asMap(value)
		if !isMap {
			continue
		}
		otherMap, ok := asMap(counterpart)
		if !ok {
			*out = append(*out, full)
			continue
		}
		walkMissing(full, baseMap, otherMap, out)
	}
}
