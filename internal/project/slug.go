package project

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxSlugBase = 150

// Slug derives a unique-ish URL slug from title: the slugified title, cut to
// 150 characters, followed by the unix time.
func Slug(title string, now time.Time) string {
	base := Slugify(title)
	if len(base) > maxSlugBase {
		base = base[:maxSlugBase]
	}
	return fmt.Sprintf("%s-%d", base, now.Unix())
}

// Slugify lowercases s, drops accents, and joins ASCII word runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return b.String()
}
