package conv

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaFor derives a JSON schema string from a Go value, suitable for
// Builder.SetJSONOutputSchema. Inline definitions keep the schema
// self-contained so providers can embed it directly in a request.
func SchemaFor(v any) (string, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(v)
	raw, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return string(raw), nil
}

// MustSchemaFor is SchemaFor for static schemas known to be reflectable.
// It panics on failure and is intended for package-level variables.
func MustSchemaFor(v any) string {
	s, err := SchemaFor(v)
	if err != nil {
		panic(err)
	}
	return s
}
