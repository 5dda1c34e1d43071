package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	for _, name := range []string{JobApplicant, SlackToRavenImport, ImportResult, Config} {
		t.Run(name, func(t *testing.T) {
			data, err := Load(name)
			require.NoError(t, err)

			var v any
			assert.NoError(t, json.Unmarshal(data, &v))
		})
	}
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("nope")
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "schema not found")
}

func TestValidateDocument_JobApplicant(t *testing.T) {
	valid := map[string]any{
		"name":               "AHFPL0001",
		"candidate_category": "White",
		"upper_range":        125000.0,
		"creation":           "2025-01-10 09:00:00.000000",
		"resume_attachment":  "/files/cv.pdf",
	}
	assert.NoError(t, ValidateDocument(JobApplicant, valid))

	nulls := map[string]any{"name": "AHFPL0002", "candidate_category": nil, "upper_range": nil}
	assert.NoError(t, ValidateDocument(JobApplicant, nulls))

	newCategory := map[string]any{"name": "AHFPL0003", "candidate_category": "Grey"}
	assert.NoError(t, ValidateDocument(JobApplicant, newCategory), "unknown categories are left to display")

	err := ValidateDocument(JobApplicant, map[string]any{"candidate_category": 3})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, JobApplicant, vErr.Schema)
	assert.Len(t, vErr.Errors, 2)
	assert.Contains(t, err.Error(), "job_applicant validation failed")
}

func TestValidateJSON_ImportResult(t *testing.T) {
	assert.NoError(t, ValidateJSON(ImportResult, []byte(`{"status":"Completed","summary":"{}"}`)))
	assert.Error(t, ValidateJSON(ImportResult, []byte(`{"summary":"{}"}`)))
	assert.Error(t, ValidateJSON(ImportResult, []byte(`{"status": 3}`)))
}

func TestValidateJSON_Config(t *testing.T) {
	assert.NoError(t, ValidateJSON(Config, []byte(`{"port": 8080, "variant": "basic"}`)))

	err := ValidateJSON(Config, []byte(`{"prot": 8080}`))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}
