package chance

import (
	"strconv"
	"strings"
)

// ToNumber attempts the soft numeric conversion used by the tolerance
// constructs. It accepts every Go numeric type, bools (0/1), and strings
// that parse as numbers. The second result reports success; failure is
// never an error here — the caller decides how to degrade.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsIntegral reports whether v carries an integer-family Go type. The
// tolerance-assignment construct uses this to keep the result type
// consistent with the dominant input type.
func IsIntegral(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}
