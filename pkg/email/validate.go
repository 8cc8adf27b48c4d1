package email

import (
	"net/mail"
	"strings"
)

const maxEmailLength = 254

// Normalize trims and lower-cases an address so it can be used as a lookup key.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsEmailValid accepts a bare addr-spec only, display names and angle brackets are rejected.
func IsEmailValid(address string) bool {
	if address == "" || len(address) > maxEmailLength {
		return false
	}

	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}

	return parsed.Address == address && strings.Contains(address[strings.LastIndex(address, "@"):], ".")
}
