package interrupt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsComplexValue(t *testing.T) {
	var nilMap map[string]any
	var nilSlice []int
	var nilPtr *struct{ A int }
	str := "x"

	cases := []struct {
		name     string
		value    any
		expected bool
	}{
		{"nil", nil, false},
		{"string", "hello", false},
		{"int", 42, false},
		{"float", 1.5, false},
		{"bool", true, false},
		{"json number", json.Number("7"), false},
		{"pointer to string", &str, false},
		{"object", map[string]any{"a": 1}, true},
		{"empty object", map[string]any{}, true},
		{"array", []any{1, 2}, true},
		{"typed slice", []int{1, 2}, true},
		{"fixed array", [2]int{1, 2}, true},
		{"struct", struct{ A int }{1}, true},
		{"pointer to struct", &struct{ A int }{1}, true},
		{"nil map", nilMap, false},
		{"nil slice", nilSlice, false},
		{"nil pointer", nilPtr, false},
		{"raw object", json.RawMessage(` {"a":1}`), true},
		{"raw array", json.RawMessage(`[1]`), true},
		{"raw string", json.RawMessage(`"hi"`), false},
		{"raw null", json.RawMessage(`null`), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsComplexValue(tc.value))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Structured, Classify(map[string]any{"a": 1}).Kind)
	assert.Equal(t, Scalar, Classify("approve?").Kind)
	assert.Equal(t, Scalar, Classify(nil).Kind)
}

func TestRender_Structured(t *testing.T) {
	p := Classify(map[string]any{"question": "ok?", "rows": []any{1, 2}})

	assert.Equal(t, "{\n  \"question\": \"ok?\",\n  \"rows\": [\n    1,\n    2\n  ]\n}", p.Render())
}

func TestRender_StructuredRaw(t *testing.T) {
	p := Classify(json.RawMessage(`{"a":[1]}`))

	assert.Equal(t, "{\n  \"a\": [\n    1\n  ]\n}", p.Render())
}

func TestRender_Scalar(t *testing.T) {
	assert.Equal(t, "Approve the table?", Classify("Approve the table?").Render())
	assert.Equal(t, "42", Classify(42).Render())
	assert.Equal(t, "true", Classify(true).Render())
	assert.Equal(t, "null", Classify(nil).Render())
	assert.Equal(t, "hi", Classify(json.RawMessage(`"hi"`)).Render())
}
