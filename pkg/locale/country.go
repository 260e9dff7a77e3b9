package locale

import (
	"strings"
)

const (
	DefaultTimezone = "UTC"
)

type Country struct {
	Code            string   // ISO 3166-1 alpha-2, e.g. "IN"
	Name            string
	PhonePrefixes   []string // E.164 calling code prefixes, e.g. "+91"
	DefaultTimezone string   // IANA zone used when presenting times to users of this country
}

// Countries is ordered. Phone parsing falls back through it in this order.
var Countries = []Country{
	{
		Code:            "IN",
		Name:            "India",
		PhonePrefixes:   []string{"+91"},
		DefaultTimezone: "Asia/Kolkata",
	},
	{
		Code:            "US",
		Name:            "United States",
		PhonePrefixes:   []string{"+1"},
		DefaultTimezone: "America/New_York",
	},
	{
		Code:            "GB",
		Name:            "United Kingdom",
		PhonePrefixes:   []string{"+44"},
		DefaultTimezone: "Europe/London",
	},
	{
		Code:            "IL",
		Name:            "Israel",
		PhonePrefixes:   []string{"+972"},
		DefaultTimezone: "Asia/Jerusalem",
	},
}

func LookupCountry(code string) (Country, bool) {
	for _, c := range Countries {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Country{}, false
}

// PhoneRegions returns the regions to try when parsing a phone number
// without a country code, with preferred first.
func PhoneRegions(preferred string) []string {
	preferred = strings.ToUpper(strings.TrimSpace(preferred))
	regions := make([]string, 0, len(Countries)+1)
	if preferred != "" {
		regions = append(regions, preferred)
	}
	for _, c := range Countries {
		if c.Code != preferred {
			regions = append(regions, c.Code)
		}
	}
	return regions
}

func InferCountryFromPhone(phone string) *Country {
	normalized := strings.TrimSpace(phone)
	if !strings.HasPrefix(normalized, "+") {
		return nil
	}

	for i := range Countries {
		for _, prefix := range Countries[i].PhonePrefixes {
			if strings.HasPrefix(normalized, prefix) {
				c := Countries[i]
				return &c
			}
		}
	}

	return nil
}

func InferTimezoneFromPhone(phone string) string {
	if c := InferCountryFromPhone(phone); c != nil {
		return c.DefaultTimezone
	}
	return DefaultTimezone
}
