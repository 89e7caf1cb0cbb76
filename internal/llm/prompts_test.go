package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtractionPrompt_ContainsSchemaAndText(t *testing.T) {
	prompt := BuildExtractionPrompt(DealSchema(), "Acme Corp raised a $5M seed round.")

	assert.Contains(t, prompt, "company_name")
	assert.Contains(t, prompt, "investment_brief")
	assert.Contains(t, prompt, "(required)")
	assert.Contains(t, prompt, "Acme Corp raised a $5M seed round.")
	assert.Contains(t, prompt, "Return ONLY valid JSON")
}

func TestBuildExtractionPrompt_DefaultsTypeHint(t *testing.T) {
	schema := ExtractionSchema{
		Description: "Extract things.",
		Fields:      []SchemaField{{Name: "thing"}},
	}
	prompt := BuildExtractionPrompt(schema, "text")
	assert.Contains(t, prompt, `"thing": string`)
}

func TestBuildRepairPrompt_NamesDefectAndPreviousResponse(t *testing.T) {
	prompt := BuildRepairPrompt(`{"company_name": ""}`, "company_name: String length must be greater than or equal to 1")

	assert.Contains(t, prompt, `{"company_name": ""}`)
	assert.Contains(t, prompt, "String length must be greater than or equal to 1")
	assert.Contains(t, prompt, "corrected JSON")
}

func TestDealSchema_FieldSet(t *testing.T) {
	schema := DealSchema()

	names := make(map[string]bool)
	required := make(map[string]bool)
	for _, field := range schema.Fields {
		names[field.Name] = true
		required[field.Name] = field.Required
	}

	for _, want := range []string{
		"company_name", "founders", "sector", "geography", "stage",
		"round_size", "metrics", "investment_brief", "tags",
	} {
		assert.True(t, names[want], "schema should include %s", want)
	}

	assert.True(t, required["company_name"])
	assert.True(t, required["investment_brief"])
	assert.False(t, required["sector"])
}
