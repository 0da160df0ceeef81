// Package llm - extractor.go provides generic LLM-based structured extraction.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "ContentClassification")
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
	sb.WriteString("- Base every field on the input text only, do not use outside knowledge.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	// Input text
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// --- Predefined Schemas ---

// ContentClassificationSchema returns the schema for classifying a piece of
// content as factual, opinion or mixed.
func ContentClassificationSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "ContentClassification",
		Description: `You are an editorial analyst. Classify the text by its dominant register.
"factual" reports verifiable events or data. "opinion" argues a position or judgement, including satire.
"mixed" combines registers with no clear majority.`,
		Fields: []SchemaField{
			{
				Name:        "type",
				Type:        "\"factual\" | \"opinion\" | \"mixed\"",
				Description: "Dominant register of the text",
				Required:    true,
			},
			{
				Name:        "confidence",
				Type:        "number",
				Description: "Confidence in the classification from 0 to 100",
				Required:    true,
			},
			{
				Name:        "language",
				Type:        "\"string\"",
				Description: "ISO 639-1 code of the text's language",
				Required:    false,
			},
		},
	}
}
