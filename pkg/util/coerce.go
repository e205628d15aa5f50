package util

import (
	"encoding/json"
	"strconv"
	"time"
)

// DateLayout is the wire format for date-valued result columns.
const DateLayout = "2006-01-02"

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// CoerceInt converts a loosely typed JSON value to int, defaulting to 0
// when the value is absent or not numeric. Job backends return row values
// as interface{} and number columns routinely arrive as float64, string
// or json.Number depending on the driver behind them.
func CoerceInt(v interface{}) int {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	case string:
		return ParseIntDefault(n, 0)
	default:
		return 0
	}
}

// CoerceFloat converts a loosely typed JSON value to float64, returning
// def when the value is absent or not numeric.
func CoerceFloat(v interface{}, def float64) float64 {
	switch n := v.(type) {
	case nil:
		return def
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return def
		}
		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

// ParseFloat parses s as a float64. Returns (f, true) on success.
func ParseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// CoerceString converts a loosely typed JSON value to string. Numbers
// render in decimal; anything else returns "".
func CoerceString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// ParseDate parses a YYYY-MM-DD string. Returns (t, true) on success.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
