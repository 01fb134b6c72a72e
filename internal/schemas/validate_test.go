package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ScoreBreakdown(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantError bool
	}{
		{
			name: "valid full breakdown",
			content: `{
				"keyword_match": 0.75,
				"achievements": 1.0,
				"summary_quality": 0.5,
				"tools_certifications": 0.25,
				"structure": 0.75,
				"strengths": ["strong keyword coverage"],
				"areas_for_improvement": ["few metrics"],
				"recommendations": ["quantify outcomes"]
			}`,
			wantError: false,
		},
		{
			name: "valid without feedback lists",
			content: `{
				"keyword_match": 0.5,
				"achievements": 0.5,
				"summary_quality": 0.5,
				"tools_certifications": 0.5,
				"structure": 0.5
			}`,
			wantError: false,
		},
		{
			name: "score off the quartile grid",
			content: `{
				"keyword_match": 0.6,
				"achievements": 0.5,
				"summary_quality": 0.5,
				"tools_certifications": 0.5,
				"structure": 0.5
			}`,
			wantError: true,
		},
		{
			name: "missing sub-score",
			content: `{
				"keyword_match": 0.5,
				"achievements": 0.5,
				"summary_quality": 0.5,
				"structure": 0.5
			}`,
			wantError: true,
		},
		{
			name: "sub-score as string",
			content: `{
				"keyword_match": "0.5",
				"achievements": 0.5,
				"summary_quality": 0.5,
				"tools_certifications": 0.5,
				"structure": 0.5
			}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(ScoreBreakdown, tt.content)
			if tt.wantError {
				require.Error(t, err)
				validationErr, ok := err.(*ValidationError)
				require.True(t, ok, "error should be ValidationError, got %T: %v", err, err)
				assert.Greater(t, len(validationErr.Errors), 0)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_TailoredContent(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantError bool
	}{
		{
			name: "valid content",
			content: `{
				"tailored_summary": "Engineer with <strong>Go</strong> experience.",
				"relevant_experience_title": "Acme Corp",
				"tailored_bullets": ["Shipped a <strong>Go</strong> service"],
				"skill_categories": {"Languages": ["Go", "SQL"]}
			}`,
			wantError: false,
		},
		{
			name: "missing experience title",
			content: `{
				"tailored_summary": "Engineer.",
				"tailored_bullets": ["Shipped a service"],
				"skill_categories": {}
			}`,
			wantError: true,
		},
		{
			name: "empty bullet list",
			content: `{
				"tailored_summary": "Engineer.",
				"relevant_experience_title": "Acme Corp",
				"tailored_bullets": [],
				"skill_categories": {}
			}`,
			wantError: true,
		},
		{
			name: "skills as flat string",
			content: `{
				"tailored_summary": "Engineer.",
				"relevant_experience_title": "Acme Corp",
				"tailored_bullets": ["Did things"],
				"skill_categories": {"Languages": "Go, SQL"}
			}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(TailoredContent, tt.content)
			if tt.wantError {
				require.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_JobRequirements(t *testing.T) {
	valid := `{
		"responsibilities": ["Build services"],
		"required_skills": ["Go"],
		"preferred_skills": [],
		"experience_level": "3-5 years",
		"qualifications": ["BS in CS"]
	}`
	assert.NoError(t, Validate(JobRequirements, valid))

	missingSkills := `{"responsibilities": ["Build services"]}`
	err := Validate(JobRequirements, missingSkills)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("no_such_schema", `{}`)
	require.Error(t, err)

	schemaErr, ok := err.(*SchemaLoadError)
	require.True(t, ok, "error should be SchemaLoadError, got %T", err)
	assert.Contains(t, schemaErr.Error(), "no_such_schema")
}

func TestValidateJSONString_Valid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"name": "test"}`

	err := ValidateJSONString(schemaContent, jsonContent)
	assert.NoError(t, err)
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"age": 30}`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "name")
	assert.Contains(t, errorMsg, "age")
}

func TestValidateJSONString_NestedFieldValidation(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["person"],
		"properties": {
			"person": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string"}
				}
			}
		}
	}`

	jsonContent := `{"person": {}}`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
	// Check that the field path includes nested field
	found := false
	for _, fieldErr := range validationErr.Errors {
		if fieldErr.Field != "" {
			found = true
			break
		}
	}
	assert.True(t, found, "should include field path in error")
}
