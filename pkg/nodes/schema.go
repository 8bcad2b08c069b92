package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/loomrun/loom/pkg/registry"
)

// SchemaValidator validates a config-supplied "data" value against a
// config-supplied JSON "schema", writing the validation result to
// "schemaResult". Grounded nearly verbatim on the teacher's
// SchemaValidatorExecutor (gojsonschema.Validate over byte-marshaled
// schema/data, strict vs. lenient failure handling), adapted from reading
// a predecessor node's input to reading "data" directly out of config.
type SchemaValidator struct{}

// Metadata implements registry.Node.
func (SchemaValidator) Metadata() registry.Metadata {
	return registry.Metadata{
		ID:      "schemaValidator",
		Name:    "Schema Validator",
		Version: "1.0.0",
		Inputs:  []string{"schema", "data", "strict"},
		Outputs: []string{"schemaResult"},
		Tag:     registry.TagUniversal,
	}
}

// Execute implements registry.Node.
func (SchemaValidator) Execute(ctx registry.ExecutionContext, config map[string]interface{}) (registry.EdgeMap, error) {
	schema, ok := config["schema"]
	if !ok {
		return nil, fmt.Errorf("%w: schema", ErrMissingField)
	}
	data, ok := config["data"]
	if !ok {
		return nil, fmt.Errorf("%w: data", ErrMissingField)
	}
	strict := configBool(config, "strict", false)

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(dataBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	if result.Valid() {
		out := map[string]interface{}{"valid": true, "data": data}
		ctx.Set("schemaResult", out)
		return registry.EdgeMap{"valid": out}, nil
	}

	validationErrors := make([]map[string]interface{}, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		validationErrors = append(validationErrors, map[string]interface{}{
			"field":       e.Field(),
			"type":        e.Type(),
			"description": e.Description(),
		})
	}

	if strict {
		return nil, fmt.Errorf("schema validation failed: %d errors", len(validationErrors))
	}

	out := map[string]interface{}{"valid": false, "data": data, "errors": validationErrors}
	ctx.Set("schemaResult", out)
	return registry.EdgeMap{"invalid": out}, nil
}
