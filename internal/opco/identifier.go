// Package opco holds the training levy domain: identifier checks, NAF sector
// classification, levy estimation and the pre-registration draft.
package opco

import (
	"strings"
	"unicode"

	"monopco-workers/internal/common/errors"
)

const (
	siretLength = 14
	sirenLength = 9
)

// NormalizeIdentifier removes every whitespace rune.
func NormalizeIdentifier(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ValidateSIRET returns the normalized 14-digit establishment number.
func ValidateSIRET(s string) (string, error) {
	clean := NormalizeIdentifier(s)
	if !allDigits(clean, siretLength) {
		return "", errors.NewInvalidIdentifierError("Le SIRET doit contenir exactement 14 chiffres", s)
	}
	return clean, nil
}

// ValidateSIREN returns the normalized 9-digit organization number.
func ValidateSIREN(s string) (string, error) {
	clean := NormalizeIdentifier(s)
	if !allDigits(clean, sirenLength) {
		return "", errors.NewInvalidIdentifierError("Le SIREN doit contenir exactement 9 chiffres", s)
	}
	return clean, nil
}

// ValidateIdentifier accepts either form, choosing by normalized length.
func ValidateIdentifier(s string) (string, error) {
	if len(NormalizeIdentifier(s)) == sirenLength {
		return ValidateSIREN(s)
	}
	return ValidateSIRET(s)
}

func allDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
