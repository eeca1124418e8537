// Package phone normalizes user-entered phone numbers.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Normalize returns number in E.164 form when it parses as a valid international number.
// Anything else is returned trimmed but otherwise as entered, since phone is free-form contact data.
func Normalize(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(number, "")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return number
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
