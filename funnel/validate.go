package funnel

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	rePostalCode = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z]$`)
	reEmail      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var (
	ErrNoFunnel          = errors.New("funnel: not started")
	ErrInvalidTransition = errors.New("funnel: invalid transition")
)

// ValidationError rejects the input of one field; the funnel stays where it is.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatePostalCode checks a forward sortation area and returns it upper-cased.
func ValidatePostalCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", &ValidationError{"postalCode", "Please enter your postal code"}
	}
	if !rePostalCode.MatchString(code) {
		return "", &ValidationError{"postalCode", "Please enter a valid Canadian postal code (e.g., K1A, M5V)"}
	}
	return strings.ToUpper(code), nil
}

// ValidateContact returns the trimmed name and the trimmed, lower-cased email.
func ValidateContact(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return "", "", &ValidationError{"name", "Please enter your name"}
	}
	if email == "" {
		return "", "", &ValidationError{"email", "Please enter your email address"}
	}
	if !reEmail.MatchString(email) {
		return "", "", &ValidationError{"email", "Please enter a valid email address"}
	}
	return name, email, nil
}
