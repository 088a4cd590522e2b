package models

import (
	"strings"
	"unicode"
)

// Site is a record owned by the backend and cached in the panel's roster.
type Site struct {
	SiteName  string `json:"siteName"`
	SafeName  string `json:"safeName"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// NormalizeSafeName strips all whitespace and lower-cases the result.
// The backend keys sites by this form of their display name.
func NormalizeSafeName(name string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name))
}

// Renamed returns a copy of s carrying newName. The URL patch replaces the
// first occurrence of the old safe name only and is not authoritative.
func (s Site) Renamed(newName string) Site {
	newSafe := NormalizeSafeName(newName)
	out := s
	out.SiteName = newName
	out.SafeName = newSafe
	if s.SafeName != "" {
		out.URL = strings.Replace(s.URL, s.SafeName, newSafe, 1)
	}
	return out
}

// Matches reports whether q, already trimmed and lower-cased, is a substring
// of the site name or URL.
func (s Site) Matches(q string) bool {
	return strings.Contains(strings.ToLower(s.SiteName), q) ||
		strings.Contains(strings.ToLower(s.URL), q)
}
