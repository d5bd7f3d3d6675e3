package utils

import (
	"errors"
	"regexp"
)

var (
	validIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	validDBNPattern  = regexp.MustCompile(`^[0-9]{2}[A-Z][0-9]{3}$`)
	validYearPattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}$`)
)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateDBN checks the District-Borough-Number shape, e.g. 01M015.
func ValidateDBN(dbn string) error {
	if err := ValidateID(dbn); err != nil {
		return err
	}
	if !validDBNPattern.MatchString(dbn) {
		return errors.New("dbn must look like 01M015")
	}
	return nil
}

// ValidateYear accepts an empty year or a school year such as 2020-21.
func ValidateYear(year string) error {
	if year == "" {
		return nil
	}
	if !validYearPattern.MatchString(year) {
		return errors.New("year must look like 2020-21")
	}
	return nil
}

// ValidateLimit bounds list sizes.
func ValidateLimit(limit, max int) error {
	if limit < 1 {
		return errors.New("limit must be positive")
	}
	if limit > max {
		return errors.New("limit too large")
	}
	return nil
}
