package engine

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

var dateTimeTypes = map[string]bool{
	"date":                        true,
	"timestamp with time zone":    true,
	"timestamp without time zone": true,
	"time with time zone":         true,
	"time without time zone":      true,
}

var intTypes = map[string]bool{
	"integer":  true,
	"bigint":   true,
	"smallint": true,
}

var floatTypes = map[string]bool{
	"real":             true,
	"double precision": true,
}

var decimalTypes = map[string]bool{
	"numeric": true,
	"decimal": true,
}

// CoerceValue maps a JSON-decoded value to something acceptable for the given
// declared column type. It never fails: a value that cannot be parsed is
// returned unchanged so the database reports the type error instead of us
// guessing. Coercion is idempotent: feeding the output back in yields the
// same value.
func CoerceValue(val any, dataType string) any {
	dt := strings.ToLower(strings.TrimSpace(dataType))

	switch {
	case dateTimeTypes[dt]:
		if isEmpty(val) {
			return nil
		}
		return val

	case dt == "boolean":
		if b, ok := val.(bool); ok {
			return b
		}
		if isEmpty(val) {
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(fmt.Sprint(val))) {
		case "t", "true", "1", "yes", "on":
			return true
		case "f", "false", "0", "no", "off":
			return false
		}
		return nil

	case intTypes[dt]:
		return coerceInt(val)

	case floatTypes[dt]:
		return coerceFloat(val)

	case decimalTypes[dt]:
		return coerceDecimal(val)

	default:
		return val
	}
}

func coerceInt(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case int, int32, int64:
		return val
	case float64:
		return int64(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		return val
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
		return val
	default:
		return val
	}
}

func coerceFloat(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return val
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
		return val
	default:
		return val
	}
}

// coerceDecimal keeps exact decimal values as json.Number so scale survives
// the round trip; float64 would silently truncate money columns.
func coerceDecimal(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case json.Number:
		return v
	case int:
		return json.Number(strconv.Itoa(v))
	case int64:
		return json.Number(strconv.FormatInt(v, 10))
	case float64:
		return json.Number(strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		s := strings.TrimSpace(v)
		if _, ok := new(big.Rat).SetString(s); ok && !strings.ContainsAny(s, "/eE") {
			return json.Number(s)
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return json.Number(s)
		}
		return val
	default:
		return val
	}
}

func isEmpty(val any) bool {
	if val == nil {
		return true
	}
	if s, ok := val.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
