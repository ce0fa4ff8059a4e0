package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/atlas3d/assetstream/errors"
)

// configSchema is the embedded JSON Schema every config layer is checked
// against before decoding. Validation stays lenient about unknown keys
// so older binaries can read newer files; its job is catching typos in
// the keys it does know, where a misspelled enum value would otherwise
// silently fall back to a default.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "assetstream configuration",
  "type": "object",
  "properties": {
    "version": {"type": "string"},
    "asset_root": {"type": "string"},
    "max_cache_size": {
      "anyOf": [
        {"type": "integer", "minimum": 1},
        {"type": "string", "minLength": 1}
      ]
    },
    "texture_quality": {"type": "string", "enum": ["low", "medium", "high"]},
    "max_concurrent_loads": {"type": "integer", "minimum": 1, "maximum": 256},
    "cache_expiry": {"$ref": "#/definitions/duration"},
    "enable_compression": {"type": "boolean"},
    "load_timeout": {"$ref": "#/definitions/duration"},
    "preload_timeout": {"$ref": "#/definitions/duration"},
    "load_rate_limit": {"type": "number", "minimum": 0},
    "retry": {
      "type": "object",
      "properties": {
        "max_retries": {"type": "integer", "minimum": 0, "maximum": 10},
        "backoff": {"$ref": "#/definitions/duration"},
        "strategy": {"type": "string", "enum": ["linear", "exponential"]}
      }
    },
    "event_buffer": {
      "type": "object",
      "properties": {
        "capacity": {"type": "integer", "minimum": 1, "maximum": 65536},
        "policy": {"type": "string", "enum": ["drop_oldest", "drop_newest"]}
      }
    },
    "metrics": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "port": {"type": "integer", "minimum": 1, "maximum": 65535},
        "path": {"type": "string", "pattern": "^/"}
      }
    }
  },
  "definitions": {
    "duration": {
      "anyOf": [
        {"type": "string", "minLength": 1},
        {"type": "integer", "minimum": 0}
      ]
    }
  }
}`

// ValidateSchema checks a raw config document against the embedded
// schema. The returned error lists every violated field.
func ValidateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.WrapInvalid(err, "config", "ValidateSchema", "load schema or document")
	}

	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("config schema violations:")
	for _, desc := range result.Errors() {
		fmt.Fprintf(&sb, "\n  - %s: %s", desc.Field(), desc.Description())
	}
	return errors.WrapInvalid(fmt.Errorf("%w: %s", errors.ErrInvalidConfig, sb.String()),
		"config", "ValidateSchema", "validate config document")
}
