package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas3d/assetstream/errors"
)

func TestValidateSchema_AcceptsValidConfig(t *testing.T) {
	doc := `{
		"max_cache_size": "256MB",
		"texture_quality": "medium",
		"max_concurrent_loads": 6,
		"cache_expiry": "30m",
		"retry": {"max_retries": 3, "backoff": "1s", "strategy": "linear"},
		"event_buffer": {"capacity": 256, "policy": "drop_oldest"},
		"metrics": {"enabled": true, "port": 9100, "path": "/metrics"}
	}`

	require.NoError(t, ValidateSchema([]byte(doc)))
}

func TestValidateSchema_AcceptsEmptyDocument(t *testing.T) {
	require.NoError(t, ValidateSchema([]byte(`{}`)))
}

// Unknown keys are allowed so older binaries can read newer files
func TestValidateSchema_LenientAboutUnknownKeys(t *testing.T) {
	doc := `{"texture_quality": "low", "future_knob": 42}`
	require.NoError(t, ValidateSchema([]byte(doc)))
}

func TestValidateSchema_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{
			name:      "misspelled quality",
			doc:       `{"texture_quality": "meduim"}`,
			wantField: "texture_quality",
		},
		{
			name:      "boolean cache size",
			doc:       `{"max_cache_size": true}`,
			wantField: "max_cache_size",
		},
		{
			name:      "concurrency above cap",
			doc:       `{"max_concurrent_loads": 1000}`,
			wantField: "max_concurrent_loads",
		},
		{
			name:      "unknown retry strategy",
			doc:       `{"retry": {"strategy": "fibonacci"}}`,
			wantField: "strategy",
		},
		{
			name:      "unknown overflow policy",
			doc:       `{"event_buffer": {"policy": "block"}}`,
			wantField: "policy",
		},
		{
			name:      "metrics path without slash",
			doc:       `{"metrics": {"path": "metrics"}}`,
			wantField: "path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err), "schema violations should classify as invalid")
			assert.Contains(t, err.Error(), tt.wantField)
		})
	}
}

// Every violation shows up in one error, not just the first
func TestValidateSchema_ReportsAllViolations(t *testing.T) {
	doc := `{"texture_quality": "ultra", "max_concurrent_loads": 0}`

	err := ValidateSchema([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "texture_quality")
	assert.Contains(t, err.Error(), "max_concurrent_loads")
}
