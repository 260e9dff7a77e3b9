package sanitizer

import (
	"rentals/pkg/locale"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone returns phone in E.164 form, or "" when it cannot be parsed
// as a valid number. Numbers without a country code are read as belonging to
// defaultRegion first, then to the other known regions.
func NormalizePhone(phone, defaultRegion string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range locale.PhoneRegions(defaultRegion) {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsedNumber) {
			continue
		}
		return phonenumbers.Format(parsedNumber, phonenumbers.E164)
	}
	return ""
}
