// Package validation checks inbound gateway payloads against JSON schemas.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// askRequestSchema describes the body of POST /api/agents/{agent}/ask.
// Either a free-text "query" or a structured "template"+"parameters" pair must
// be present; the handler enforces that cross-field rule after shape checks.
var askRequestSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"query": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"template": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"parameters": map[string]interface{}{
			"type": "object",
		},
		"format": map[string]interface{}{
			"type": "string",
		},
	},
	"additionalProperties": false,
}

// ValidateAskRequest validates the decoded request body. It returns a
// human-readable description of every schema violation found.
func ValidateAskRequest(body map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(askRequestSchema)
	documentLoader := gojsonschema.NewGoLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
	}

	_, hasQuery := body["query"]
	_, hasTemplate := body["template"]
	if !hasQuery && !hasTemplate {
		return fmt.Errorf("invalid request: either 'query' or 'template' is required")
	}

	return nil
}
