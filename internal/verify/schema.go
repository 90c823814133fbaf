package verify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	sigsyaml "sigs.k8s.io/yaml"
)

// rulespecSchemaJSON and envelopeSchemaJSON are embedded JSON Schemas that
// give a cheap, structural pre-validation pass before the rulespec/envelope
// parse proper: compile a schema and validate a YAML-converted-to-JSON
// document against it. These are compiled from an in-memory string resource
// rather than resolved from a file:// URL, since the core validates
// documents that never necessarily touch disk as files a schema compiler
// could address by path.
const rulespecSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "claims": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "selector"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "selector": {"type": "string", "minLength": 1}
        }
      }
    },
    "predicates": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["claim", "rule"],
        "properties": {
          "claim": {"type": "string", "minLength": 1},
          "rule": {
            "type": "string",
            "enum": ["exists", "not_exists", "equals", "contains", "not_contains",
                     "any_of", "none_of", "greater_than", "less_than",
                     "min_length", "max_length", "matches"]
          },
          "source": {"type": "string", "enum": ["task_prompt", "memory"]},
          "notes": {"type": "string"}
        }
      }
    }
  }
}`

const envelopeSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "facts": {"type": "object"},
    "verified": {"type": "string"}
  }
}`

func compileEmbeddedSchema(resourceURL, schemaJSON string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("schema: add resource %s: %w", resourceURL, err)
	}
	return compiler.Compile(resourceURL)
}

// ValidateRulespecShape runs the embedded rulespec schema against raw YAML,
// converting YAML to JSON with sigs.k8s.io/yaml before the structural
// Rulespec parse, so shape problems are reported as input-shape errors
// rather than as parse panics.
func ValidateRulespecShape(data []byte) error {
	schema, err := compileEmbeddedSchema("mem://rulespec.schema.json", rulespecSchemaJSON)
	if err != nil {
		return err
	}
	return validateYAMLAgainstSchema(schema, data)
}

// ValidateEnvelopeShape is ValidateRulespecShape's counterpart for envelopes.
func ValidateEnvelopeShape(data []byte) error {
	schema, err := compileEmbeddedSchema("mem://envelope.schema.json", envelopeSchemaJSON)
	if err != nil {
		return err
	}
	return validateYAMLAgainstSchema(schema, data)
}

func validateYAMLAgainstSchema(schema *jsonschema.Schema, data []byte) error {
	jsonBytes, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("schema: convert YAML to JSON: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return fmt.Errorf("schema: invalid JSON after conversion: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
