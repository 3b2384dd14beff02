package library

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"valvx/internal/domain"
)

var (
	folderNamePattern = regexp.MustCompile(`^[^/\\]+$`)
	colorPattern      = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// validationError wraps an ozzo-validation error so it maps to 400.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

// storableText rejects strings Postgres cannot store in a text column or
// that would render as control characters: invalid UTF-8 and NUL bytes.
func storableText(value interface{}) error {
	s, _ := value.(string)
	if !utf8.ValidString(s) {
		return errors.New("must be valid UTF-8")
	}
	if strings.ContainsFunc(s, unicode.IsControl) {
		return errors.New("must not contain control characters")
	}
	return nil
}
