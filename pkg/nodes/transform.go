package nodes

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/loomrun/loom/pkg/registry"
)

// Transform reshapes or restyles a single config-supplied "data" value,
// writing the result to "transformResult" in state. Text case operations are
// grounded on the teacher's TextOperationExecutor; the data-shape
// conversions (to_array/to_object/flatten/keys/values) are grounded on the
// teacher's TransformExecutor, both adapted from pulling predecessor-node
// inputs to reading "data" directly out of config.
type Transform struct{}

// Metadata implements registry.Node.
func (Transform) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "transform",
		Name:    "Transform",
		Version: "1.0.0",
		Inputs:  []string{"operation", "data"},
		Outputs: []string{"transformResult"},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (Transform) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	op, err := configString(config, "operation")
	if err != nil {
		return nil, err
	}
	data, ok := config["data"]
	if !ok {
		return nil, fmt.Errorf("%w: data", ErrMissingField)
	}

	var result interface{}
	switch op {
	case "uppercase", "lowercase", "titlecase", "camelcase", "inversecase":
		text, ok := data.(string)
		if !ok {
			return nil, fmt.Errorf("%w: data must be a string for %s, got %T", ErrInvalidFieldType, op, data)
		}
		result, err = transformText(op, text)
	case "to_array":
		result, err = transformToArray(data)
	case "to_object":
		result, err = transformToObject(data)
	case "flatten":
		result, err = transformFlatten(data)
	case "keys":
		result, err = transformKeys(data)
	case "values":
		result, err = transformValues(data)
	default:
		return registry.EdgeMap{"error": map[string]interface{}{
			"error":     fmt.Errorf("%w: %s", ErrUnknownOperation, op).Error(),
			"operation": op,
		}}, nil
	}
	if err != nil {
		return nil, err
	}

	ctx.Set("transformResult", result)
	return registry.EdgeMap{"result": result}, nil
}

func transformText(op, text string) (string, error) {
	switch op {
	case "uppercase":
		return strings.ToUpper(text), nil
	case "lowercase":
		return strings.ToLower(text), nil
	case "titlecase":
		return cases.Title(language.Und).String(strings.ToLower(text)), nil
	case "camelcase":
		return toCamelCase(text), nil
	case "inversecase":
		return toInverseCase(text), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

func toCamelCase(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return s
	}
	result := strings.ToLower(words[0])
	for _, word := range words[1:] {
		if word == "" {
			continue
		}
		result += strings.ToUpper(string(word[0])) + strings.ToLower(word[1:])
	}
	return result
}

func toInverseCase(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			runes[i] = unicode.ToLower(r)
		case unicode.IsLower(r):
			runes[i] = unicode.ToUpper(r)
		}
	}
	return string(runes)
}

func transformToArray(data interface{}) ([]interface{}, error) {
	if arr, ok := data.([]interface{}); ok {
		return arr, nil
	}
	return []interface{}{data}, nil
}

func transformToObject(data interface{}) (map[string]interface{}, error) {
	arr, ok := data.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: to_object requires array data, got %T", ErrInvalidFieldType, data)
	}
	result := make(map[string]interface{})
	for i := 0; i+1 < len(arr); i += 2 {
		key, ok := arr[i].(string)
		if !ok {
			return nil, fmt.Errorf("%w: to_object requires string keys at index %d", ErrInvalidFieldType, i)
		}
		result[key] = arr[i+1]
	}
	return result, nil
}

func transformFlatten(data interface{}) ([]interface{}, error) {
	arr, ok := data.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: flatten requires array data, got %T", ErrInvalidFieldType, data)
	}
	var flattened []interface{}
	var flatten func(interface{})
	flatten = func(item interface{}) {
		if sub, ok := item.([]interface{}); ok {
			for _, s := range sub {
				flatten(s)
			}
			return
		}
		flattened = append(flattened, item)
	}
	for _, item := range arr {
		flatten(item)
	}
	return flattened, nil
}

func transformKeys(data interface{}) ([]interface{}, error) {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: keys requires object data, got %T", ErrInvalidFieldType, data)
	}
	keys := make([]interface{}, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	return keys, nil
}

func transformValues(data interface{}) ([]interface{}, error) {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: values requires object data, got %T", ErrInvalidFieldType, data)
	}
	values := make([]interface{}, 0, len(obj))
	for _, v := range obj {
		values = append(values, v)
	}
	return values, nil
}
