package provision

import (
	"errors"
	"regexp"
)

const (
	LabelMinLen = 1
	LabelMaxLen = 63
)

var (
	ErrInvalidLabelLength            = errors.New("label name is too short or too long")
	ErrLabelContainsInvalidCharacter = errors.New("label name contains invalid characters")
	ErrInvalidLabelStart             = errors.New("label name must start with a letter or digit")
)

// print codes: letters, digits, underscore, hyphen and dot
var validLabelChars = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateLabelName checks that a label name can be printed and stored in
// the table without quoting surprises.
func ValidateLabelName(name string) error {
	if len(name) > LabelMaxLen || len(name) < LabelMinLen {
		return ErrInvalidLabelLength
	}

	if !validLabelChars.MatchString(name) {
		return ErrLabelContainsInvalidCharacter
	}

	first := name[0]
	if !(first >= 'A' && first <= 'Z' || first >= 'a' && first <= 'z' || first >= '0' && first <= '9') {
		return ErrInvalidLabelStart
	}

	return nil
}
