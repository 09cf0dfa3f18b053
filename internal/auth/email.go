package auth

import "strings"

// NormalizeEmail trims the address and lowercases the domain part only.
// The local part keeps its case: Test3@Example.com becomes Test3@example.com.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
