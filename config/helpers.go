package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Coercion helpers let config files spell values the way humans write
// them ("30m", "256MB") while the typed Config keeps numeric fields.

// coerceDuration accepts the JSON spellings a duration field may take:
// a duration string, a day-suffixed string ("14d"), or a number of
// nanoseconds. nil (field absent) coerces to zero.
func coerceDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		return parseDuration(val)
	case float64:
		return time.Duration(val), nil
	default:
		return 0, fmt.Errorf("unsupported duration type %T", v)
	}
}

// parseDuration handles time.ParseDuration syntax plus a "d" suffix for
// days, which long cache TTLs tend to use
func parseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days := strings.TrimSuffix(s, "d")
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// coerceByteSize accepts byte counts as JSON numbers or humanized
// strings such as "256MB" or "1 GiB".
func coerceByteSize(v any) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int64(val), nil
	case string:
		return parseByteSize(val)
	default:
		return 0, fmt.Errorf("unsupported size type %T", v)
	}
}

// parseByteSize parses a humanized byte count ("256MB", "1 GiB").
func parseByteSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q overflows int64", s)
	}
	return int64(n), nil
}

// envValue reads one environment override, rejecting values that fail
// basic hygiene checks
func (l *Loader) envValue(suffix string) (string, bool) {
	key := l.envPrefix + "_" + suffix
	val := os.Getenv(key)
	if val == "" {
		return "", false
	}
	if err := validateEnvVar(key, val); err != nil {
		return "", false
	}
	return val, true
}
