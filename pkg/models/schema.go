package models

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// planSchema validates plan documents loaded from disk before they are
// handed to the engine.
const planSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["objective", "file_path", "modifications"],
  "properties": {
    "objective": {"type": "string"},
    "file_path": {"type": "string", "minLength": 1},
    "modifications": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type", "description", "risk"],
        "properties": {
          "type": {"enum": ["add_performance_markers", "add_logging", "code_cleanup"]},
          "description": {"type": "string"},
          "risk": {"enum": ["low", "medium", "high"]}
        }
      }
    },
    "estimated_time": {"type": "string"},
    "source_digest": {"type": "string"},
    "timestamp": {"type": "string"}
  }
}`

var (
	planSchemaOnce sync.Once
	planSchemaC    *jsonschema.Schema
	planSchemaErr  error
)

func compiledPlanSchema() (*jsonschema.Schema, error) {
	planSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(planSchema))
		if err != nil {
			planSchemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("selfmod://plan.schema.json", doc); err != nil {
			planSchemaErr = err
			return
		}
		planSchemaC, planSchemaErr = c.Compile("selfmod://plan.schema.json")
	})
	return planSchemaC, planSchemaErr
}

// ValidatePlanDocument checks raw plan JSON against the plan schema.
func ValidatePlanDocument(data []byte) error {
	sch, err := compiledPlanSchema()
	if err != nil {
		return fmt.Errorf("plan schema unavailable: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid plan JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("plan does not match schema: %w", err)
	}
	return nil
}
