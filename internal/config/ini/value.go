package ini

import (
	"strconv"
	"strings"
)

// ParseBool interprets a stored boolean. Accepted spellings, compared
// case-insensitively: true/false, yes/no, on/off and integers, where any
// non-zero integer is true.
func ParseBool(s string) (bool, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true, true
	case "false", "no", "off":
		return false, true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n != 0, true
	}
	return false, false
}

// FormatBool renders a boolean the way configuration files spell it.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseInt parses a stored integer. Surrounding space is ignored.
func ParseInt(s string, bitSize int) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, bitSize)
	return n, err == nil
}

// ParseFloat parses a stored floating point number. A trailing "f" suffix
// is accepted.
func ParseFloat(s string, bitSize int) (float64, bool) {
	s = strings.TrimSpace(s)
	if n := len(s); n > 1 && (s[n-1] == 'f' || s[n-1] == 'F') && (s[n-2] == '.' || (s[n-2] >= '0' && s[n-2] <= '9')) {
		s = s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, bitSize)
	return f, err == nil
}

// FormatFloat renders a float with the fewest digits that round-trip.
func FormatFloat(f float64, bitSize int) string {
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}
