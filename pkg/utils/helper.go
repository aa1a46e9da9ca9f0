package utils

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := cast.ToIntE(value)
	if err != nil || result < 1 {
		return defaultValue
	}

	return result
}

// ParseID parses a positive decimal identifier taken from a path or query.
// Signs, prefixes, separators and leading zeros are rejected.
func ParseID(value string) (int64, error) {
	if value == "" || value[0] == '0' {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid id %q", value)
		}
	}

	id, err := cast.ToInt64E(value)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
