// Package validation holds request payload validation helpers.
package validation

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates a request payload against its `validate` tags.
func Struct(s any) error {
	return validate.Struct(s)
}

var ErrInvalidID = errors.New("invalid id")

// ParseID parses a positive integer identifier.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ParseDate parses a YYYY-MM-DD query parameter.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
