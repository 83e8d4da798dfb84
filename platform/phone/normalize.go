// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when the caller has no region of its own.
const DefaultRegion = "US"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input, region string) string {
	return format(input, region, phonenumbers.E164)
}

// Display formats a phone number for print: national format for numbers in
// region, international otherwise. Unparseable input is returned trimmed.
func Display(input, region string) string {
	trimmed := strings.TrimSpace(input)
	number, ok := parse(trimmed, region)
	if !ok {
		return trimmed
	}
	if phonenumbers.GetRegionCodeForNumber(number) == regionOrDefault(region) {
		return phonenumbers.Format(number, phonenumbers.NATIONAL)
	}
	return phonenumbers.Format(number, phonenumbers.INTERNATIONAL)
}

func format(input, region string, f phonenumbers.PhoneNumberFormat) string {
	trimmed := strings.TrimSpace(input)
	number, ok := parse(trimmed, region)
	if !ok {
		return trimmed
	}
	return phonenumbers.Format(number, f)
}

func parse(trimmed, region string) (*phonenumbers.PhoneNumber, bool) {
	if trimmed == "" {
		return nil, false
	}
	number, err := phonenumbers.Parse(trimmed, regionOrDefault(region))
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return nil, false
	}
	return number, true
}

func regionOrDefault(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return DefaultRegion
	}
	return region
}
