package extract

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// BuildExample walks a JSON Schema document and produces a placeholder
// object showing the expected shape: strings become "<description>" hints,
// numbers become zeros, arrays get a single example element. Models follow
// a concrete example far more reliably than a bare schema.
func BuildExample(schemaJSON string) (map[string]any, error) {
	var schema map[string]any
	if err := json.Unmarshal([]byte(schemaJSON), &schema); err != nil {
		return nil, eris.Wrap(err, "extract: parse schema")
	}
	return buildExampleObject(schema, definitions(schema)), nil
}

// definitions collects the schema's local definition table. Both the
// "definitions" and "$defs" keys are honored.
func definitions(schema map[string]any) map[string]any {
	defs := map[string]any{}
	for _, key := range []string{"definitions", "$defs"} {
		if d, ok := schema[key].(map[string]any); ok {
			for name, v := range d {
				defs[name] = v
			}
		}
	}
	return defs
}

func buildExampleObject(schema map[string]any, defs map[string]any) map[string]any {
	example := map[string]any{}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return example
	}
	for name, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		example[name] = exampleValue(name, prop, defs)
	}
	return example
}

func exampleValue(name string, prop map[string]any, defs map[string]any) any {
	if ref, ok := prop["$ref"].(string); ok {
		return exampleForRef(ref, defs)
	}

	// anyOf covers optional fields: use the first non-null option.
	if options, ok := prop["anyOf"].([]any); ok {
		for _, raw := range options {
			opt, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := opt["type"].(string); t != "null" {
				return exampleValue(name, opt, defs)
			}
		}
		return nil
	}

	if enum, ok := prop["enum"].([]any); ok && len(enum) > 0 {
		return enum[0]
	}

	switch schemaType(prop) {
	case "string":
		if desc, _ := prop["description"].(string); desc != "" {
			return "<" + desc + ">"
		}
		return "<" + name + ">"
	case "integer":
		return 0
	case "number":
		return 0.0
	case "boolean":
		return true
	case "array":
		item, ok := prop["items"].(map[string]any)
		if !ok {
			item = map[string]any{"type": "string"}
		}
		return []any{exampleValue("item", item, defs)}
	case "object":
		return buildExampleObject(prop, defs)
	default:
		return "..."
	}
}

func exampleForRef(ref string, defs map[string]any) any {
	name := ref
	if idx := strings.LastIndexByte(ref, '/'); idx >= 0 {
		name = ref[idx+1:]
	}
	refSchema, ok := defs[name].(map[string]any)
	if !ok {
		return "..."
	}
	if enum, ok := refSchema["enum"].([]any); ok && len(enum) > 0 {
		return enum[0]
	}
	return buildExampleObject(refSchema, defs)
}

// schemaType returns the property's type, preferring the first non-null
// entry when type is a union list like ["string", "null"].
func schemaType(prop map[string]any) string {
	switch t := prop["type"].(type) {
	case string:
		return t
	case []any:
		for _, raw := range t {
			if s, ok := raw.(string); ok && s != "null" {
				return s
			}
		}
	}
	return "string"
}
