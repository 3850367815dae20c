package catalog

import (
	"regexp"
	"strings"

	"github.com/perfume/backend/internal/domain/shared"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugStripper = regexp.MustCompile(`[^a-z0-9]+`)
)

// maxSlugLength is the column width of slug columns
const maxSlugLength = 120

// ValidateSlug checks that s is lowercase-kebab
func ValidateSlug(s string) error {
	if s == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	if len(s) > maxSlugLength {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot exceed 120 characters")
	}
	if !slugPattern.MatchString(s) {
		return shared.NewDomainError("INVALID_SLUG", "Slug may only contain lowercase letters, digits and single dashes")
	}
	return nil
}

// Slugify derives a slug from free text. Non-latin input may produce an empty
// slug, in which case callers must ask for one explicitly.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStripper.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}
