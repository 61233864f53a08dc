package valueobject

import "strings"

// NormalizePhone converts an international or dashed Japanese phone number
// into the backend's expected national form: a leading "0", no dashes.
//
// normalize("+81" + rest) == "0" + rest
// normalize("81" + rest)  == "0" + rest, when len(input) >= 11
// Idempotent: NormalizePhone(NormalizePhone(x)) == NormalizePhone(x).
func NormalizePhone(raw string) string {
	s := strings.ReplaceAll(raw, "-", "")
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "+81"):
		return "0" + strings.TrimPrefix(s, "+81")
	case strings.HasPrefix(s, "81") && len(s) >= 11:
		return "0" + strings.TrimPrefix(s, "81")
	default:
		return s
	}
}
