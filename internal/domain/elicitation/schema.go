package elicitation

import "log/slog"

// allowedPropertyTypes are the primitive types an elicitation schema
// property may declare. Complex types (nested objects, arrays, refs)
// are rejected to keep client implementations simple.
var allowedPropertyTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
}

// allowedStringFormats are the string formats accepted without
// comment. Other formats are accepted but logged as non-standard.
var allowedStringFormats = map[string]bool{
	"email":     true,
	"uri":       true,
	"date":      true,
	"date-time": true,
}

// ValidateSchema checks that a requested elicitation schema is a flat
// object of primitive-typed properties. Returns a *SchemaError naming
// the offending property on violation.
func ValidateSchema(schema map[string]any, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if schema == nil {
		return &SchemaError{Reason: "schema must be an object"}
	}
	if t, _ := schema["type"].(string); t != "object" {
		return &SchemaError{Type: t, Reason: "top-level schema must be type \"object\""}
	}

	rawProps, present := schema["properties"]
	if !present {
		return nil
	}
	properties, ok := rawProps.(map[string]any)
	if !ok {
		return &SchemaError{Reason: "schema properties must be an object"}
	}

	for name, raw := range properties {
		prop, ok := raw.(map[string]any)
		if !ok {
			return &SchemaError{Property: name, Reason: "property schema must be an object"}
		}

		propType, _ := prop["type"].(string)
		if !allowedPropertyTypes[propType] {
			return &SchemaError{Property: name, Type: propType, Reason: "only primitive types (string, number, integer, boolean) are allowed"}
		}

		// Nested structures are not allowed; elicitation schemas must
		// be flat.
		if _, nested := prop["properties"]; nested {
			return &SchemaError{Property: name, Type: propType, Reason: "nested object properties are not allowed"}
		}
		if _, nested := prop["items"]; nested {
			return &SchemaError{Property: name, Type: propType, Reason: "array items are not allowed"}
		}

		if propType == "string" {
			if format, has := prop["format"].(string); has && !allowedStringFormats[format] {
				logger.Warn("elicitation schema uses non-standard string format",
					"property", name, "format", format)
			}
		}
	}
	return nil
}
