package util

// MaskToken redacts an access or refresh token for log output, keeping
// just enough of the prefix to correlate entries against provider
// dashboards. Short tokens are fully redacted.
func MaskToken(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "…" + s[len(s)-2:]
}
