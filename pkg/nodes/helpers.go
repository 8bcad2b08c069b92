package nodes

import (
	"fmt"
)

// configString reads a required string field from config.
func configString(config map[string]interface{}, field string) (string, error) {
	v, ok := config[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidFieldType, field, v)
	}
	return s, nil
}

// optionalConfigString reads field, returning def if it is absent.
func optionalConfigString(config map[string]interface{}, field, def string) string {
	v, ok := config[field]
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// configFloat64Slice reads a required numeric array field. JSON numbers
// decode as float64, matching the rest of the config map's types.
func configFloat64Slice(config map[string]interface{}, field string) ([]float64, error) {
	v, ok := config[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array, got %T", ErrInvalidFieldType, field, v)
	}
	out := make([]float64, 0, len(arr))
	for i, item := range arr {
		f, ok := toFloat64(item)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be a number, got %T", ErrInvalidFieldType, field, i, item)
		}
		out = append(out, f)
	}
	return out, nil
}

// configInterfaceSlice reads a required array field without coercing its
// element type.
func configInterfaceSlice(config map[string]interface{}, field string) ([]interface{}, error) {
	v, ok := config[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array, got %T", ErrInvalidFieldType, field, v)
	}
	return arr, nil
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func configInt(config map[string]interface{}, field string, def int) int {
	v, ok := config[field]
	if !ok {
		return def
	}
	if f, ok := toFloat64(v); ok {
		return int(f)
	}
	return def
}

func configBool(config map[string]interface{}, field string, def bool) bool {
	v, ok := config[field]
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}
