// Package phone normalizes phone numbers for storage and comparison.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Numbers without a country prefix are assumed to be Dutch.
const defaultRegion = "NL"

// NormalizeE164 canonicalizes a phone number to E.164 so that the same
// number always compares equal, whatever format the caller typed it in.
// Input that does not parse as a valid number comes back trimmed but
// otherwise untouched.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
