package factory

import (
	"fmt"
	"math"

	"github.com/c360/nodeforge/errors"
)

// Param bag helpers. Node-kind parameter bags arrive as map[string]any
// decoded from JSON or YAML, so numeric values may be int, int64, or
// float64 depending on the decoder. The Get helpers return a default on
// absence or type mismatch; the Require helpers return a classified
// validation error instead.

// GetString safely extracts a string value from a parameter bag with a
// default fallback.
func GetString(params map[string]any, key, defaultValue string) string {
	if value, exists := params[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

// GetInt safely extracts an integer value from a parameter bag with a
// default fallback and bounds checking.
func GetInt(params map[string]any, key string, defaultValue int) int {
	if value, exists := params[key]; exists {
		switch v := value.(type) {
		case int:
			return v
		case int64:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return defaultValue
			}
			return int(v)
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return defaultValue
			}
			if v != math.Trunc(v) {
				return defaultValue
			}
			return int(v)
		}
	}
	return defaultValue
}

// GetFloat safely extracts a float value from a parameter bag with a
// default fallback.
func GetFloat(params map[string]any, key string, defaultValue float64) float64 {
	if value, exists := params[key]; exists {
		switch v := value.(type) {
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return defaultValue
			}
			return v
		case float32:
			return float64(v)
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return defaultValue
}

// GetBool safely extracts a boolean value from a parameter bag with a
// default fallback.
func GetBool(params map[string]any, key string, defaultValue bool) bool {
	if value, exists := params[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return defaultValue
}

// GetStringSlice safely extracts a string list from a parameter bag. Both
// []string and []any-of-strings decodings are accepted.
func GetStringSlice(params map[string]any, key string) []string {
	value, exists := params[key]
	if !exists {
		return nil
	}
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil
			}
			result = append(result, str)
		}
		return result
	}
	return nil
}

// RequireString extracts a required non-empty string parameter.
func RequireString(params map[string]any, key string) (string, error) {
	value, exists := params[key]
	if !exists {
		return "", errors.WrapValidation(
			fmt.Errorf("parameter %q: %w", key, errors.ErrMissingParam),
			"Factory", "RequireString", "required parameter check")
	}
	str, ok := value.(string)
	if !ok || str == "" {
		return "", errors.WrapValidation(
			fmt.Errorf("parameter %q must be a non-empty string, got %T: %w", key, value, errors.ErrInvalidParam),
			"Factory", "RequireString", "parameter type check")
	}
	return str, nil
}

// RequireFloat extracts a required numeric parameter.
func RequireFloat(params map[string]any, key string) (float64, error) {
	value, exists := params[key]
	if !exists {
		return 0, errors.WrapValidation(
			fmt.Errorf("parameter %q: %w", key, errors.ErrMissingParam),
			"Factory", "RequireFloat", "required parameter check")
	}
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			break
		}
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, errors.WrapValidation(
		fmt.Errorf("parameter %q must be numeric, got %T: %w", key, value, errors.ErrInvalidParam),
		"Factory", "RequireFloat", "parameter type check")
}

// RequireStringSlice extracts a required non-empty string list parameter.
func RequireStringSlice(params map[string]any, key string) ([]string, error) {
	if _, exists := params[key]; !exists {
		return nil, errors.WrapValidation(
			fmt.Errorf("parameter %q: %w", key, errors.ErrMissingParam),
			"Factory", "RequireStringSlice", "required parameter check")
	}
	values := GetStringSlice(params, key)
	if len(values) == 0 {
		return nil, errors.WrapValidation(
			fmt.Errorf("parameter %q must be a non-empty string list: %w", key, errors.ErrInvalidParam),
			"Factory", "RequireStringSlice", "parameter type check")
	}
	return values, nil
}
