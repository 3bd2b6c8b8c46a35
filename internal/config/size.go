package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sizeUnits = map[byte]int64{
	'B': 1,
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
}

// ParseSize parses a human-readable size into bytes: a plain or fractional
// number with an optional B, K, M, G or T suffix (KB, MB, GB and TB are
// accepted too). Units are powers of 1024 and case does not matter.
func ParseSize(s string) (int64, error) {
	num := strings.ToUpper(strings.TrimSpace(s))
	if len(num) > 2 && num[len(num)-1] == 'B' && strings.IndexByte("KMGT", num[len(num)-2]) >= 0 {
		num = num[:len(num)-1]
	}

	mult := int64(1)
	if num != "" {
		if m, ok := sizeUnits[num[len(num)-1]]; ok {
			mult = m
			num = num[:len(num)-1]
		}
	}
	if num == "" || strings.HasPrefix(num, "-") {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	if n, err := strconv.ParseInt(num, 10, 64); err == nil {
		if n > math.MaxInt64/mult {
			return 0, fmt.Errorf("size out of range: %q", s)
		}
		return n * mult, nil
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	bytes := f * float64(mult)
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("size out of range: %q", s)
	}
	return int64(bytes), nil
}
