package common

import (
	"strconv"
	"strings"
)

// ParsePositiveInt parses positive integers with fallback.
func ParsePositiveInt(value string, fallback int) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback, false
	}
	return parsed, true
}

// ParseCoordinate parses one latitude/longitude query parameter.
func ParseCoordinate(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
