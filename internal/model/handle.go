package model

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var foldCaser = cases.Fold()

// NormalizeHandle reduces a raw handle to its surface-specific identity form:
// Unicode case-folded, stripped of "@" and surrounding whitespace, and for
// website candidates reduced to the bare registrable hostname.
func NormalizeHandle(surface Surface, raw string) string {
	h := strings.TrimSpace(raw)
	h = strings.TrimPrefix(h, "@")

	if surface == SurfaceWebsite {
		return NormalizeDomain(h)
	}

	h = foldCaser.String(h)
	// Trailing slashes and path fragments from pasted profile URLs.
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	// Instagram and TikTok treat trailing periods as noise.
	if surface == SurfaceInstagram || surface == SurfaceTikTok {
		h = strings.Trim(h, ".")
	}
	return h
}

// NormalizeDomain lowercases a hostname or URL and strips scheme, "www." and
// any path. Returns "" if nothing resembling a hostname remains.
func NormalizeDomain(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Host
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimSuffix(s, ".")
	if !strings.Contains(s, ".") {
		return ""
	}
	return s
}

// FoldName case-folds a display name for canonical-name comparison across
// surfaces, collapsing interior whitespace.
func FoldName(name string) string {
	folded := foldCaser.String(strings.TrimSpace(name))
	return strings.Join(strings.Fields(folded), " ")
}

// TitleCaser renders surface names for operator-facing output.
var TitleCaser = cases.Title(language.English)
