package records

import (
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ErrEmptyName = errors.New("name has no usable characters")

// Slug lowercases name, strips accents and drops anything that is not an
// ASCII letter or digit.
func Slug(name string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	normalized, _, err := transform.String(t, name)
	if err != nil {
		return "", err
	}

	slug := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, normalized)

	if slug == "" {
		return "", ErrEmptyName
	}
	return slug, nil
}

// ShortID returns 8 random hex characters.
func ShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// NewUserID builds "<slug>_<8 hex>" from a display name.
func NewUserID(name string) (string, error) {
	slug, err := Slug(name)
	if err != nil {
		return "", err
	}
	return slug + "_" + ShortID(), nil
}
