package content

import (
	"errors"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy    = bluemonday.UGCPolicy()
	nameRegex = regexp.MustCompile(`^[a-zA-Z0-9._ -]+$`)
)

// Sanitize removes unsafe HTML from the input string using a strict policy.
// Every message body passes through here before fan-out.
func Sanitize(input string) string {
	return policy.Sanitize(input)
}

// ValidateName checks that a user display name contains only allowed
// characters (alphanumeric, dot, dash, underscore, space) and is not blank.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name cannot be empty")
	}
	if !nameRegex.MatchString(name) {
		return errors.New("name contains invalid characters (allowed: alphanumeric, dot, dash, underscore, space)")
	}
	return nil
}
