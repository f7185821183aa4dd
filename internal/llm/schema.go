package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ResponseSchemaName names the structured output contract sent to providers.
const ResponseSchemaName = "research_generation_response"

// ResponseSchema returns the JSON schema for StructuredResponse.
func ResponseSchema() map[string]any {
	nullableString := func(desc string) map[string]any {
		return map[string]any{
			"type":        []any{"string", "null"},
			"description": desc,
		}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"processing_summary": nullableString("Short summary of the research performed."),
			"research_document":  nullableString("The full research document."),
		},
		"required":             []any{"processing_summary", "research_document"},
		"additionalProperties": false,
	}
}

var responseSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(ResponseSchema()))
	if err != nil {
		panic(fmt.Sprintf("llm: invalid response schema: %v", err))
	}
	return s
}()

// tolerated lists schema violations accepted locally. Providers are asked for
// the strict schema, but missing keys decode as nil and extra keys are ignored.
var tolerated = map[string]bool{
	"required":                        true,
	"additional_property_not_allowed": true,
}

// DecodeStructured validates raw model output against the response schema
// and decodes it. Missing fields decode as nil and unknown fields are dropped;
// anything else that violates the schema returns ErrSchemaMismatch.
func DecodeStructured(raw []byte) (StructuredResponse, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return StructuredResponse{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	result, err := responseSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return StructuredResponse{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	var problems []string
	for _, e := range result.Errors() {
		if tolerated[e.Type()] {
			continue
		}
		problems = append(problems, e.String())
	}
	if len(problems) > 0 {
		return StructuredResponse{}, fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(problems, "; "))
	}

	var out StructuredResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return StructuredResponse{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return out, nil
}
