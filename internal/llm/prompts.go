// Package llm - prompts.go builds the extraction and repair prompts.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "ExtractedDeal")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "map[string]string"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	// System description
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	// Output schema
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	// Instructions
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize beyond it.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	// Input text
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// BuildRepairPrompt constructs a corrective prompt from a previous invalid
// response and the validation error it produced. The model is asked to fix
// the named defect rather than regenerate from scratch.
func BuildRepairPrompt(previousResponse, validationError string) string {
	var sb strings.Builder

	sb.WriteString("Your previous response had validation errors:\n")
	sb.WriteString(validationError)
	sb.WriteString("\n\nOriginal response:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nPlease fix the errors and return valid JSON matching the schema. ")
	sb.WriteString("Return ONLY the corrected JSON object, no markdown, no explanation.\n")

	return sb.String()
}

// DealSchema returns the extraction schema for venture deal memos.
// Extracts company identity, round details, metrics, and an investment brief.
func DealSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "ExtractedDeal",
		Description: `You are an expert venture analyst. Your task is to extract structured deal information from a free-form deal memo.
Capture facts as stated in the memo; company_name is required, extract it from context if not explicit.`,
		Fields: []SchemaField{
			{
				Name:        "company_name",
				Type:        "\"string\"",
				Description: "Name of the company raising the round",
				Required:    true,
			},
			{
				Name:        "founders",
				Type:        "[\"string\"]",
				Description: "Founder names in the order mentioned",
				Required:    false,
			},
			{
				Name:        "sector",
				Type:        "\"string\"",
				Description: "Industry sector (e.g., 'fintech', 'climate tech')",
				Required:    false,
			},
			{
				Name:        "geography",
				Type:        "\"string\"",
				Description: "Company location or target market geography",
				Required:    false,
			},
			{
				Name:        "stage",
				Type:        "\"string\"",
				Description: "Seed | Series A | Series B | Series C | Growth | Other",
				Required:    false,
			},
			{
				Name:        "round_size",
				Type:        "\"string\"",
				Description: "Round size as written (e.g., '$5M', '$10-15M')",
				Required:    false,
			},
			{
				Name:        "metrics",
				Type:        "{\"key\": \"value\"}",
				Description: "Quantitative data: revenue, growth, users, retention",
				Required:    false,
			},
			{
				Name:        "investment_brief",
				Type:        "[\"string\"]",
				Description: "5-10 concise bullet points summarizing key investment highlights",
				Required:    true,
			},
			{
				Name:        "tags",
				Type:        "[\"string\"]",
				Description: "Short labels such as 'fintech', 'deep tech', 'Seed'",
				Required:    false,
			},
		},
	}
}
