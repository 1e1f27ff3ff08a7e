package elicitation

import (
	"errors"
	"testing"
)

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name     string
		schema   map[string]any
		wantErr  bool
		property string
	}{
		{
			name:    "nil schema",
			schema:  nil,
			wantErr: true,
		},
		{
			name:    "non-object top level",
			schema:  map[string]any{"type": "array"},
			wantErr: true,
		},
		{
			name:    "missing type",
			schema:  map[string]any{"properties": map[string]any{}},
			wantErr: true,
		},
		{
			name:   "object without properties",
			schema: map[string]any{"type": "object"},
		},
		{
			name: "flat primitives",
			schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":   map[string]any{"type": "string"},
					"age":    map[string]any{"type": "integer"},
					"score":  map[string]any{"type": "number"},
					"active": map[string]any{"type": "boolean"},
				},
			},
		},
		{
			name: "standard string format",
			schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"email": map[string]any{"type": "string", "format": "email"},
				},
			},
		},
		{
			name: "non-standard format accepted",
			schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"phone": map[string]any{"type": "string", "format": "phone"},
				},
			},
		},
		{
			name: "nested object property",
			schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"address": map[string]any{
						"type":       "object",
						"properties": map[string]any{"street": map[string]any{"type": "string"}},
					},
				},
			},
			wantErr:  true,
			property: "address",
		},
		{
			name: "array property",
			schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tags": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
			},
			wantErr:  true,
			property: "tags",
		},
		{
			name: "property missing type",
			schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"mystery": map[string]any{},
				},
			},
			wantErr:  true,
			property: "mystery",
		},
		{
			name: "non-object property schema",
			schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"oops": "string",
				},
			},
			wantErr:  true,
			property: "oops",
		},
		{
			name: "non-object properties value",
			schema: map[string]any{
				"type":       "object",
				"properties": []any{"name"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema(tt.schema, nil)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("error type = %T, want *SchemaError", err)
			}
			if schemaErr.Property != tt.property {
				t.Errorf("offending property = %q, want %q", schemaErr.Property, tt.property)
			}
		})
	}
}

func TestActionIsValid(t *testing.T) {
	for _, a := range []Action{ActionAccept, ActionDecline, ActionCancel} {
		if !a.IsValid() {
			t.Errorf("%q reported invalid", a)
		}
	}
	for _, a := range []Action{"", "approve", "ACCEPT"} {
		if a.IsValid() {
			t.Errorf("%q reported valid", a)
		}
	}
}
