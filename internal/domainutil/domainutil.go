// Package domainutil provides the pure, deterministic host-string
// transforms shared by the prober and analyzer layers.
package domainutil

import (
	"net/url"
	"strings"
)

// Normalize strips scheme, path, and a trailing slash, lowercases, and
// strips a single leading "www.".
func Normalize(host string) string {
	h := strings.TrimSpace(host)
	if u, err := url.Parse(h); err == nil && u.Host != "" {
		h = u.Host
	}
	if i := strings.Index(h, "/"); i >= 0 {
		h = h[:i]
	}
	h = strings.ToLower(h)
	h = strings.TrimPrefix(h, "www.")
	return h
}

// ExtractMain returns the registrable root of host. If host ends with any
// element of keepPatterns (e.g. ".gov.lt"), only the leading "www." is
// stripped and the rest is returned as-is; otherwise the rightmost two
// labels are returned.
func ExtractMain(host string, keepPatterns []string) string {
	h := strings.TrimPrefix(strings.ToLower(host), "www.")

	for _, pattern := range keepPatterns {
		if strings.HasSuffix(h, pattern) {
			return h
		}
	}

	labels := strings.Split(h, ".")
	if len(labels) <= 2 {
		return h
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// IsLithuanian reports whether host ends in ".lt" as its true TLD (not,
// e.g., ".lt.com").
func IsLithuanian(host string) bool {
	h := strings.ToLower(host)
	if !strings.HasSuffix(h, ".lt") {
		return false
	}
	labels := strings.Split(h, ".")
	return len(labels) >= 2 && labels[len(labels)-1] == "lt"
}

// SameFamily reports whether a and b share the same registrable root once
// ExtractMain is applied to both.
func SameFamily(a, b string, keepPatterns []string) bool {
	return ExtractMain(a, keepPatterns) == ExtractMain(b, keepPatterns)
}

// ExtractLTFromChain walks chain (a redirect chain of URLs), extracts each
// hop's host, normalizes it, reduces it to its ExtractMain root, and retains
// roots that are Lithuanian, not in ignore, and not same-family as origin.
// Results are deduplicated preserving first-occurrence order.
func ExtractLTFromChain(chain []string, origin string, ignore []string, keepPatterns []string) []string {
	ignoreSet := make(map[string]bool, len(ignore))
	for _, i := range ignore {
		ignoreSet[strings.ToLower(i)] = true
	}

	seen := make(map[string]bool)
	var out []string

	for _, raw := range chain {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		host := Normalize(u.Host)
		root := ExtractMain(host, keepPatterns)

		if !IsLithuanian(root) {
			continue
		}
		if ignoreSet[root] {
			continue
		}
		if SameFamily(root, origin, keepPatterns) {
			continue
		}
		if seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, root)
	}
	return out
}
