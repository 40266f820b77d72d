package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs parses content into T.
//
// A string T receives the content unchanged. Every other type is decoded as
// JSON; when that fails the content is repaired with jsonrepair and decoded
// again, and as a last resort schema-style {"type","value"} wrappers are
// unwrapped.
//
// Example:
//
//	args, err := ParseStringAs[map[string]json.RawMessage](`{number1: 3, 'number2': 4,}`)
func ParseStringAs[T any](content string) (T, error) {
	var result T

	if reflect.TypeFor[T]().Kind() == reflect.String {
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil
	}

	content = stripCodeFence(content)

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repairedJSON, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	// A fresh value: a partially successful first decode must not leak through.
	var repaired T
	err = json.Unmarshal([]byte(repairedJSON), &repaired)
	if err == nil {
		return repaired, nil
	}

	if unwrapped, unwrapErr := unwrapSchemaValues(repairedJSON); unwrapErr == nil {
		var unwrappedResult T
		if json.Unmarshal([]byte(unwrapped), &unwrappedResult) == nil {
			return unwrappedResult, nil
		}
	}

	return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (original content: %s, repaired: %s)", result, err, content, repairedJSON)
}

// UnwrapSchemaValues replaces every {"type": ..., "value": X} object in a
// JSON document with X. Models that confuse a parameter schema with the
// arguments themselves produce such wrappers even when the JSON is valid.
func UnwrapSchemaValues(jsonStr string) (string, error) {
	return unwrapSchemaValues(jsonStr)
}

// stripCodeFence removes a surrounding markdown code fence such as
// ```json ... ```.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline != -1 {
		// Drop the language tag line.
		trimmed = trimmed[newline+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// unwrapSchemaValues keeps numbers as json.Number so integers beyond 2^53
// survive the round trip.
func unwrapSchemaValues(jsonStr string) (string, error) {
	decoder := json.NewDecoder(strings.NewReader(jsonStr))
	decoder.UseNumber()

	var data any
	if err := decoder.Decode(&data); err != nil {
		return "", err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return "", errors.New("unexpected data after JSON value")
	}

	result, err := json.Marshal(recursiveUnwrap(data))
	if err != nil {
		return "", err
	}
	return string(result), nil
}

func recursiveUnwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				return recursiveUnwrap(value)
			}
		}
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = recursiveUnwrap(val)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = recursiveUnwrap(val)
		}
		return result

	default:
		return data
	}
}
