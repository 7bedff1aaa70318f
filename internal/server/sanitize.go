package server

import (
	"regexp"
	"strings"
)

var (
	urlCredentials = regexp.MustCompile(`://[^/@\s]+@`)
	passwordPairs  = regexp.MustCompile(`(?i)\b(password|pwd)=[^\s;&]+`)
	mysqlDSN       = regexp.MustCompile(`\b[^\s:/@]+:[^\s@]+@tcp\(`)
)

// SanitizeError returns an error message with credentials masked. URLs lose
// their user info, key=value passwords are replaced and MySQL DSNs lose
// their user and password.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = urlCredentials.ReplaceAllString(msg, "://***@")
	msg = passwordPairs.ReplaceAllString(msg, "$1=***")
	msg = mysqlDSN.ReplaceAllString(msg, "***@tcp(")
	return strings.TrimSpace(msg)
}
