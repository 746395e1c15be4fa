package profiles

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const catalogSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["profiles"],
  "properties": {
    "profiles": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "aggression": {"type": "number", "minimum": 0, "maximum": 1},
          "speedMultiplier": {"type": "number", "exclusiveMinimum": 0},
          "fleeHealthFraction": {"type": "number", "minimum": 0, "maximum": 1},
          "swarm": {"type": "boolean"},
          "role": {"type": "string", "enum": ["", "support", "guard"]},
          "sightRadius": {"type": "number", "exclusiveMinimum": 0},
          "hearingRadius": {"type": "number", "exclusiveMinimum": 0},
          "attackRange": {"type": "number", "exclusiveMinimum": 0},
          "aggressionScript": {"type": "string"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

var compiledSchema = jsonschema.MustCompileString("profiles.json", catalogSchema)

// validateSchema checks the raw YAML document against the catalog schema.
// The document is round-tripped through JSON so the validator sees the value
// types it expects.
func validateSchema(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode for validation: %w", err)
	}
	var value any
	if err := json.Unmarshal(encoded, &value); err != nil {
		return fmt.Errorf("decode for validation: %w", err)
	}
	if err := compiledSchema.Validate(value); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
