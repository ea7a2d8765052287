package apiref

import (
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"
)

// renderExample synthesizes an indented JSON example from a schema. Explicit
// examples and enums in the spec win over type-derived placeholders.
func renderExample(schema *openapi3.Schema) string {
	v := exampleValue(schema, 0)
	if v == nil {
		return ""
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// recursion is bounded; self-referential schemas otherwise never terminate
const maxExampleDepth = 4

func exampleValue(schema *openapi3.Schema, depth int) any {
	if schema == nil || depth > maxExampleDepth {
		return nil
	}
	if schema.Example != nil {
		return schema.Example
	}
	if len(schema.Enum) > 0 {
		return schema.Enum[0]
	}

	t := schema.Type
	switch {
	case len(schema.Properties) > 0 || (t != nil && t.Is(openapi3.TypeObject)):
		obj := make(map[string]any, len(schema.Properties))
		for name, ref := range schema.Properties {
			if ref != nil {
				obj[name] = exampleValue(ref.Value, depth+1)
			}
		}
		return obj
	case t != nil && t.Is(openapi3.TypeArray):
		if schema.Items != nil {
			return []any{exampleValue(schema.Items.Value, depth + 1)}
		}
		return []any{}
	case t != nil && t.Is(openapi3.TypeString):
		switch schema.Format {
		case "date-time":
			return "2026-01-02T15:04:05Z"
		case "date":
			return "2026-01-02"
		case "uuid":
			return "00000000-0000-0000-0000-000000000000"
		default:
			return "string"
		}
	case t != nil && t.Is(openapi3.TypeInteger):
		return 0
	case t != nil && t.Is(openapi3.TypeNumber):
		return 0.0
	case t != nil && t.Is(openapi3.TypeBoolean):
		return false
	}
	return nil
}
