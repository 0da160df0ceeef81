// Package schemas publishes the JSON Schemas of the engine's output documents.
package schemas

import _ "embed"

// VerificationResult is the JSON Schema of a single verification result.
//
//go:embed verification_result.schema.json
var VerificationResult string
