package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// envelopeSchema is the structural contract every enveloped response must
// satisfy before typed decoding is attempted. It pins the zero-or-one shape
// of the optional fields and the metadata block without constraining the
// payload type, which varies per operation.
const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["data", "error", "metadata"],
  "properties": {
    "data": {
      "type": ["array", "null"],
      "maxItems": 1
    },
    "error": {
      "type": ["array", "null"],
      "maxItems": 1,
      "items": {
        "type": "object",
        "minProperties": 1,
        "additionalProperties": {
          "type": ["object", "null"],
          "properties": {
            "message": {"type": "string"},
            "details": {
              "type": "array",
              "items": {
                "type": "object",
                "required": ["key", "value"],
                "properties": {
                  "key": {"type": "string"},
                  "value": {"type": "string"}
                }
              }
            }
          }
        }
      }
    },
    "metadata": {
      "type": "object",
      "required": ["timestamp", "version"],
      "properties": {
        "timestamp": {"type": "integer", "minimum": 0},
        "version": {"type": "string"},
        "request_id": {
          "type": ["array", "null"],
          "maxItems": 1,
          "items": {"type": "string"}
        }
      }
    }
  }
}`

var (
	compileOnce      sync.Once
	compiledEnvelope *jsonschema.Schema
	compileErr       error
)

func envelopeValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		const url = "https://trueorigin.schemas.local/api/envelope.schema.json"
		if err := c.AddResource(url, strings.NewReader(envelopeSchema)); err != nil {
			compileErr = fmt.Errorf("envelope schema load failed: %w", err)
			return
		}
		compiledEnvelope, compileErr = c.Compile(url)
	})
	return compiledEnvelope, compileErr
}

// ValidateEnvelope checks raw against the envelope contract. A non-nil error
// means the payload must not be fed to the typed decoder; callers surface it
// as malformed data.
func ValidateEnvelope(raw []byte) error {
	schema, err := envelopeValidator()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("envelope is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("envelope shape rejected: %w", err)
	}
	return nil
}
