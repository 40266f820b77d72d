package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// int64 bounds as float64; the upper bound itself is out of range
const (
	minInt64Float = -9223372036854775808.0
	maxInt64Float = 9223372036854775808.0
)

// coerce converts value to the Go type of paramType without losing information.
func coerce(paramType ParamType, value any) (any, error) {
	switch paramType {
	case Integer:
		return toInt64(value)
	case Number:
		return toFloat64(value)
	case String:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case Boolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b, nil
			}
		}
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", paramType)
	}
	return nil, typeError(paramType, value)
}

func toInt64(value any) (any, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int, int8, int16, int32:
		return reflect.ValueOf(v).Int(), nil
	case uint, uint8, uint16, uint32, uint64:
		u := reflect.ValueOf(v).Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows integer", u)
		}
		return int64(u), nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case json.Number:
		return numericStringToInt64(v.String())
	case string:
		return numericStringToInt64(v)
	}
	return nil, typeError(Integer, value)
}

func numericStringToInt64(s string) (any, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("expected integer, got %q", s)
	}
	return floatToInt64(f)
}

func floatToInt64(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("expected integer, got %v", f)
	}
	if f < minInt64Float || f >= maxInt64Float {
		return nil, fmt.Errorf("value %v overflows integer", f)
	}
	return int64(f), nil
}

func toFloat64(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int, int8, int16, int32, int64:
		return float64(reflect.ValueOf(v).Int()), nil
	case uint, uint8, uint16, uint32, uint64:
		return float64(reflect.ValueOf(v).Uint()), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("expected number, got %q", v)
		}
		return f, nil
	}
	return nil, typeError(Number, value)
}

func typeError(paramType ParamType, value any) error {
	if value == nil {
		return fmt.Errorf("expected %s, got null", paramType)
	}
	return fmt.Errorf("expected %s, got %T", paramType, value)
}
