package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sizeUnits = map[string]int64{
	"B":  1,
	"KB": 1024,
	"MB": 1024 * 1024,
	"GB": 1024 * 1024 * 1024,
}

// splitSize separates a size string like "10MB" or " 1.5 kb " into number and unit
func splitSize(size string) (string, string, error) {
	size = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(size), " ", ""))
	if size == "" {
		return "", "", fmt.Errorf("empty size")
	}

	numPart, unit := size, "B"
	for i, char := range size {
		if (char < '0' || char > '9') && char != '.' {
			numPart, unit = size[:i], size[i:]
			break
		}
	}

	if numPart == "" {
		return "", "", fmt.Errorf("no numeric value found")
	}
	if _, ok := sizeUnits[unit]; !ok {
		return "", "", fmt.Errorf("invalid size unit: %s (valid: B, KB, MB, GB)", unit)
	}
	return numPart, unit, nil
}

// ParseSize converts a size string to bytes. A bare number is bytes.
func ParseSize(size string) (int64, error) {
	numPart, unit, err := splitSize(size)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %s", numPart)
	}
	bytes := value * float64(sizeUnits[unit])
	if math.IsInf(bytes, 0) || math.IsNaN(bytes) || bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("size %s is too large", size)
	}
	return int64(bytes), nil
}
