// Package logo resolves free-text bank, wallet and subscription names to
// logo assets.
//
// Registry keys are short canonical brand tokens. Real descriptors embed
// them in longer strings with inconsistent case and spacing ("MTN MoMo
// Airtime Purchase"), so matching is containment based rather than exact.
package logo

import (
	"strings"
	"unicode"
)

// Asset is an opaque reference to a logo image. The zero value means no match.
type Asset string

// Entry is one alias → asset mapping.
type Entry struct {
	Alias string
	Asset Asset
}

// Registry is an immutable, ordered alias table. When more than one alias
// satisfies a containment rule, the alias declared first wins.
type Registry struct {
	entries []Entry
	exact   map[string]Asset
}

// NewRegistry builds a registry. Aliases are lowercased and trimmed; a
// repeated alias keeps its first position and asset.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{exact: make(map[string]Asset, len(entries))}
	for _, e := range entries {
		alias := strings.ToLower(strings.TrimSpace(e.Alias))
		if alias == "" || e.Asset == "" {
			continue
		}
		if _, dup := r.exact[alias]; dup {
			continue
		}
		r.exact[alias] = e.Asset
		r.entries = append(r.entries, Entry{Alias: alias, Asset: e.Asset})
	}
	return r
}

// Aliases returns the registry keys in declaration order.
func (r *Registry) Aliases() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Alias
	}
	return out
}

// Len returns the number of aliases.
func (r *Registry) Len() int { return len(r.entries) }

// Match returns the asset for name. Rules, first hit wins:
//
//  1. exact alias match after lowercasing and trimming;
//  2. the name contains an alias, or an alias contains the name with its
//     whitespace removed;
//  3. the same containment test with whitespace removed from both sides.
func (r *Registry) Match(name string) (Asset, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "", false
	}

	if a, ok := r.exact[normalized]; ok {
		return a, true
	}

	compact := stripSpace(normalized)
	for _, e := range r.entries {
		if strings.Contains(normalized, e.Alias) || strings.Contains(e.Alias, compact) {
			return e.Asset, true
		}
	}

	for _, e := range r.entries {
		aliasCompact := stripSpace(e.Alias)
		if strings.Contains(compact, aliasCompact) || strings.Contains(aliasCompact, compact) {
			return e.Asset, true
		}
	}

	return "", false
}

// MatchAny accepts untyped input, e.g. a decoded JSON field. Anything that
// is not a string is no match.
func MatchAny(r *Registry, v any) (Asset, bool) {
	switch s := v.(type) {
	case string:
		return r.Match(s)
	case *string:
		if s == nil {
			return "", false
		}
		return r.Match(*s)
	default:
		return "", false
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
