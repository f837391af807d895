package structured

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema reflects a JSON schema for T as a generic map. Fields tagged
// `jsonschema:"required"` are required; everything is inlined.
func Schema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}

	var v T
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}

// SchemaText renders a schema as indented JSON for inclusion in a prompt.
func SchemaText(schema map[string]any) string {
	if len(schema) == 0 {
		return ""
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
