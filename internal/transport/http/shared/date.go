package shared

import "time"

// ParseDate parses RFC3339 first, then plain YYYY-MM-DD. An empty string is
// not an error, it means the caller sent no date.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}
