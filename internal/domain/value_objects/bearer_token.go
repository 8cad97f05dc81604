package valueobjects

import "strings"

const bearerScheme = "bearer"

// ParseBearerAuthorization extracts the credential from an Authorization header value.
// The scheme is matched case-insensitively.
func ParseBearerAuthorization(header string) (string, bool) {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return "", false
	}

	scheme, credential, found := strings.Cut(trimmed, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	credential = strings.TrimSpace(credential)
	if credential == "" || strings.ContainsAny(credential, " \t") {
		return "", false
	}

	return credential, true
}
