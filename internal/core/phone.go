package core

import (
	"errors"
	"strings"
	"unicode"
)

var ErrInvalidPhone = errors.New("please enter a valid 10-digit phone number")

// NormalizePhone strips separators from a member's phone number and checks it
// has exactly ten digits.
func NormalizePhone(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 10 {
		return "", ErrInvalidPhone
	}
	return digits, nil
}
