// Package util holds the JSON-schema helpers shared by tool argument
// validation and config-declared tool schemas.
package util

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidationError reports one argument that failed schema validation.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema derives a minimal JSON schema from a struct: json tags name
// the properties, description tags fill property descriptions, and every
// exported non-pointer field without omitempty is required.
func CreateSchema(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	properties := make(map[string]any)
	required := make([]string, 0)

	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)

			name, prop, optional := fieldSchema(field)
			if name == "" {
				continue
			}

			properties[name] = prop
			if !optional {
				required = append(required, name)
			}
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// fieldSchema maps one struct field to its property name and schema. An
// empty name means the field is skipped (unexported or json:"-").
func fieldSchema(field reflect.StructField) (string, map[string]any, bool) {
	if !field.IsExported() {
		return "", nil, false
	}

	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", nil, false
	}

	name := field.Name
	tagParts := strings.Split(tag, ",")
	if tagParts[0] != "" {
		name = tagParts[0]
	}

	prop := map[string]any{
		"type": jsonType(field.Type),
	}
	if desc := field.Tag.Get("description"); desc != "" {
		prop["description"] = desc
	}

	optional := field.Type.Kind() == reflect.Ptr
	for _, opt := range tagParts[1:] {
		if strings.TrimSpace(opt) == "omitempty" {
			optional = true
		}
	}

	return name, prop, optional
}

// ValidateParameters checks params against a schema: required fields must be
// present, present fields must match their declared type, and enum-bearing
// fields must hold one of the listed values. Fields the schema does not
// declare pass through untouched.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range requiredList(schema["required"]) {
		if _, ok := params[name]; !ok {
			return &ValidationError{
				Field:   name,
				Message: "required field is missing",
			}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for name, value := range params {
		prop, ok := properties[name].(map[string]any)
		if !ok {
			continue
		}

		wantType, _ := prop["type"].(string)
		if !matchesType(value, wantType) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", wantType, value),
			}
		}

		if enum, ok := prop["enum"]; ok && !inEnum(value, enum) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("value %v not in enum %v", value, enum),
			}
		}
	}

	return nil
}

// requiredList reads a required clause in either of its two shapes: []string
// straight from Go code, or []any out of a decoded JSON document.
func requiredList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		var out []string
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// inEnum reports whether value appears in the enum clause. Unrecognized enum
// shapes validate as a match rather than rejecting everything.
func inEnum(value any, enum any) bool {
	switch values := enum.(type) {
	case []any:
		for _, v := range values {
			if v == value {
				return true
			}
		}
	case []string:
		s, ok := value.(string)
		if !ok {
			return false
		}
		for _, v := range values {
			if v == s {
				return true
			}
		}
	default:
		return true
	}
	return false
}

// jsonType maps a Go type onto its JSON schema type name.
func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}

// matchesType checks one value against a JSON schema type name. A nil value
// matches anything; JSON decoding turns whole numbers into float64, so those
// count as integers.
func matchesType(value any, wantType string) bool {
	if value == nil {
		return true
	}

	switch wantType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
