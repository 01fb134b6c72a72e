// Package llm - extractor.go builds prompts for schema-directed extraction.
// The model is shown the output shape key by key and told to copy source text
// verbatim rather than summarize it.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes one extraction task: the preamble the model
// reads and the JSON fields it must return.
type ExtractionSchema struct {
	Name        string        // schema identifier, e.g. "JobRequirements"
	Description string        // task preamble placed at the top of the prompt
	Fields      []SchemaField // output fields in prompt order
}

// SchemaField is one key of the expected JSON output.
type SchemaField struct {
	Name        string // JSON key
	Type        string // shape hint shown to the model; empty means "string"
	Description string // one-line guidance appended as a comment
	Required    bool
}

// BuildExtractionPrompt renders the prompt for schema over inputText. The
// expected output is spelled out as a commented JSON skeleton.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	lines := make([]string, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		line := fmt.Sprintf("  %q: %s", field.Name, typeHint)
		if field.Required {
			line += " (required)"
		}
		if field.Description != "" {
			line += fmt.Sprintf(" // %s", field.Description)
		}
		lines = append(lines, line)
	}

	var sb strings.Builder
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n}\n\n")
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")
	return sb.String()
}

// JobRequirementsSchema returns the extraction schema for job descriptions.
// Extracts responsibilities, skills, experience level, and qualifications.
func JobRequirementsSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "JobRequirements",
		Description: `You are an expert job posting parser. COPY TEXT VERBATIM - do not paraphrase, summarize, or reword.
Your task is to extract and categorize information from a job description.
IMPORTANT: Preserve the exact wording from the original text.
Goal: Extract responsibilities, required and preferred skills, experience level, and qualifications.
EXCLUDE: Application form fields, EEO statements, legal disclaimers, generic "About Company" boilerplate.`,
		Fields: []SchemaField{
			{
				Name:        "responsibilities",
				Type:        "[\"string\"]",
				Description: "Job duties, day-to-day work - copy each responsibility verbatim",
				Required:    true,
			},
			{
				Name:        "required_skills",
				Type:        "[\"string\"]",
				Description: "Technical skills and tools that are required - copy each verbatim",
				Required:    true,
			},
			{
				Name:        "preferred_skills",
				Type:        "[\"string\"]",
				Description: "Preferred or nice-to-have skills - copy verbatim",
				Required:    false,
			},
			{
				Name:        "experience_level",
				Type:        "\"string\"",
				Description: "Seniority or years of experience asked for (e.g. '5+ years', 'Senior')",
				Required:    false,
			},
			{
				Name:        "qualifications",
				Type:        "[\"string\"]",
				Description: "Education, degrees, and certifications asked for - copy verbatim",
				Required:    false,
			},
		},
	}
}
