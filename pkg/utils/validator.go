package utils

import "regexp"

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	loginCodeRegex = regexp.MustCompile(`^[0-9]{6}$`)
)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidLoginCode reports whether s is exactly 6 ASCII digits.
func IsValidLoginCode(s string) bool {
	return loginCodeRegex.MatchString(s)
}
