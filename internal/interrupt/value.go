// Package interrupt classifies and renders the payloads a run surfaces when it pauses for human input.
package interrupt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Kind tags how an interrupt payload should be presented
type Kind int

const (
	Scalar Kind = iota
	Structured
)

func (k Kind) String() string {
	if k == Structured {
		return "structured"
	}
	return "scalar"
}

// Payload is an interrupt value tagged once at the boundary, so render sites don't re-derive the kind
type Payload struct {
	Kind  Kind
	Value any
}

// Classify tags v as Structured when it is a complex value and Scalar otherwise
func Classify(v any) Payload {
	if IsComplexValue(v) {
		return Payload{Kind: Structured, Value: v}
	}
	return Payload{Kind: Scalar, Value: v}
}

// IsComplexValue reports whether v is a non-nil mapping or ordered collection. Scalars, nil and nil
// containers are simple. The function is total over all inputs.
func IsComplexValue(v any) bool {
	if raw, ok := v.(json.RawMessage); ok {
		raw = bytes.TrimSpace(raw)
		return len(raw) > 0 && (raw[0] == '{' || raw[0] == '[')
	}
	if _, ok := v.(json.Number); ok {
		return false
	}

	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return false
	}

	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return !rv.IsNil()
	case reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

// Render formats the payload: structured values as indented JSON, scalars as plain text
func (p Payload) Render() string {
	if p.Kind == Structured {
		if raw, ok := p.Value.(json.RawMessage); ok {
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err == nil {
				return buf.String()
			}
			return string(raw)
		}
		b, err := json.MarshalIndent(p.Value, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", p.Value)
		}
		return string(b)
	}
	return scalarString(p.Value)
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(s, &decoded); err == nil {
			return scalarString(decoded)
		}
		return string(s)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "null"
		}
		rv = rv.Elem()
	}
	return fmt.Sprint(rv.Interface())
}
