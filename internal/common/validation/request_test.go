package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAskRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]interface{}
		wantErr bool
	}{
		{
			name: "free text query",
			body: map[string]interface{}{"query": "variance last quarter"},
		},
		{
			name: "structured query",
			body: map[string]interface{}{
				"template":   "variance_summary",
				"parameters": map[string]interface{}{"@from": "2025-01-01"},
			},
		},
		{
			name:    "neither query nor template",
			body:    map[string]interface{}{"format": "json"},
			wantErr: true,
		},
		{
			name:    "empty query string",
			body:    map[string]interface{}{"query": ""},
			wantErr: true,
		},
		{
			name:    "unknown field rejected",
			body:    map[string]interface{}{"query": "x", "sql": "DROP TABLE users"},
			wantErr: true,
		},
		{
			name:    "parameters must be an object",
			body:    map[string]interface{}{"template": "t", "parameters": "not-a-map"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAskRequest(tt.body)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid request")
			} else {
				require.NoError(t, err)
			}
		})
	}
}
