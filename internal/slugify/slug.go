// Package slugify derives URL-safe, human-readable identifiers from
// campground names.
package slugify

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Exists reports whether a slug is already taken. Implemented by the
// campground repository.
type Exists func(ctx context.Context, slug string) (bool, error)

// Make lowercases the name, collapses runs of non-alphanumeric characters
// into single hyphens and trims hyphens from both ends. An empty or fully
// symbolic name yields "campground".
func Make(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "campground"
	}
	return slug
}

// MakeUnique derives a slug from name and, on collision, appends a short
// random suffix until the slug is free.
func MakeUnique(ctx context.Context, name string, exists Exists) (string, error) {
	slug := Make(name)
	taken, err := exists(ctx, slug)
	if err != nil {
		return "", err
	}
	for taken {
		slug = Make(name) + "-" + uuid.NewString()[:6]
		taken, err = exists(ctx, slug)
		if err != nil {
			return "", err
		}
	}
	return slug, nil
}
