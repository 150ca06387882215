package utils

import (
	"net/url"
	"strings"
)

// SanitizeTitle reduces a song title to a filename-safe form: only
// letters, digits, space, hyphen and underscore survive, runs of
// whitespace collapse to a single space.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ExtractContentID pulls the provider content id out of an external
// link (the v= parameter for youtube style links, otherwise the last
// path element). Empty string if nothing usable is found.
func ExtractContentID(rawurl string) string {
	parsed, err := url.Parse(rawurl)
	if err != nil {
		return ""
	}
	if v := parsed.Query().Get("v"); v != "" {
		return v
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	last := parts[len(parts)-1]
	if last == "" || strings.Contains(last, ".") {
		return ""
	}
	return last
}
