package conv

import (
	"encoding/json"
	"strings"
	"testing"
)

type weatherReport struct {
	City        string  `json:"city"`
	TempCelsius float64 `json:"temp_celsius"`
	Summary     string  `json:"summary,omitempty"`
}

func TestSchemaFor(t *testing.T) {
	schema, err := SchemaFor(&weatherReport{})
	if err != nil {
		t.Fatalf("SchemaFor: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(schema), &decoded); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if decoded["type"] != "object" {
		t.Errorf("schema type = %v, want object", decoded["type"])
	}
	props, ok := decoded["properties"].(map[string]any)
	if !ok {
		t.Fatal("schema has no properties")
	}
	for _, field := range []string{"city", "temp_celsius", "summary"} {
		if _, ok := props[field]; !ok {
			t.Errorf("schema missing field %q", field)
		}
	}
	if strings.Contains(schema, "$ref") {
		t.Error("schema should be self-contained, found $ref")
	}
}

func TestSchemaFor_DrivesJSONOutput(t *testing.T) {
	schema := MustSchemaFor(&weatherReport{})
	body := NewBuilder().
		SetDefaultTurnID("t1").
		SetJSONOutputSchema(schema).
		Add(NewText(AgentUser, "weather in oslo")).
		EnsureTurnID().
		Build()

	if !body.RequiresJSONOutput() {
		t.Error("derived schema did not switch the body to JSON output")
	}
}
