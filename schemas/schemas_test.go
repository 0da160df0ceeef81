package schemas_test

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/trustcheck/internal/schemas"
	published "github.com/jonathan/trustcheck/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationResultSchema_ValidJSON(t *testing.T) {
	var schemaObj map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(published.VerificationResult), &schemaObj))

	assert.Equal(t, "http://json-schema.org/draft-07/schema#", schemaObj["$schema"])
	assert.Equal(t, "object", schemaObj["type"])
	assert.Contains(t, schemaObj, "properties")
	assert.Contains(t, schemaObj, "definitions")
}

func TestVerificationResultSchema_Loads(t *testing.T) {
	// an empty document must fail on required fields, not on schema loading
	err := schemas.ValidateJSONString(published.VerificationResult, `{}`)
	require.Error(t, err)

	var validationErr *schemas.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Errors)
}
