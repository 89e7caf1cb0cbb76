// Package extraction parses and validates LLM output against the
// ExtractedDeal schema.
package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/dealbrief/internal/types"
)

// dealSchemaJSON is the structural gate applied to the raw LLM response
// before decoding into the ExtractedDeal struct. It rejects wrong top-level
// shapes and wrong field types with field-level error messages the repair
// prompt can quote back to the model.
const dealSchemaJSON = `{
  "type": "object",
  "required": ["company_name", "investment_brief"],
  "properties": {
    "company_name": {"type": "string", "minLength": 1},
    "founders": {"type": "array", "items": {"type": "string"}},
    "sector": {"type": "string"},
    "geography": {"type": "string"},
    "stage": {"type": "string"},
    "round_size": {"type": "string"},
    "metrics": {"type": "object", "additionalProperties": {"type": "string"}},
    "investment_brief": {"type": "array", "items": {"type": "string"}, "minItems": 1, "maxItems": 15},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

// MalformedOutputError indicates the LLM response was not parseable JSON.
type MalformedOutputError struct {
	Cause error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("response is not valid JSON: %v", e.Cause)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Cause
}

// SchemaViolationError indicates the response parsed but failed the
// ExtractedDeal field constraints.
type SchemaViolationError struct {
	Violations []string
}

func (e *SchemaViolationError) Error() string {
	return "schema validation failed: " + strings.Join(e.Violations, "; ")
}

// Parse parses a raw LLM response and validates it against the ExtractedDeal
// schema. On success all optional fields default to empty values.
func Parse(raw string) (*types.ExtractedDeal, error) {
	// Parse gate: must be JSON at all before anything else.
	var probe any
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, &MalformedOutputError{Cause: err}
	}

	// Structural gate against the JSON schema.
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(dealSchemaJSON),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return nil, &MalformedOutputError{Cause: err}
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			violations = append(violations, fmt.Sprintf("%s: %s", field, desc.Description()))
		}
		return nil, &SchemaViolationError{Violations: violations}
	}

	var extracted types.ExtractedDeal
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		return nil, &MalformedOutputError{Cause: err}
	}

	// Struct-level constraints (required fields, length bounds).
	if err := extracted.Validate(); err != nil {
		return nil, &SchemaViolationError{Violations: []string{err.Error()}}
	}

	applyDefaults(&extracted)
	return &extracted, nil
}

// applyDefaults replaces nil slices and maps with empty values so the
// persisted record never distinguishes "absent" from "empty" on success.
func applyDefaults(e *types.ExtractedDeal) {
	if e.Founders == nil {
		e.Founders = []string{}
	}
	if e.Metrics == nil {
		e.Metrics = map[string]string{}
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
}
