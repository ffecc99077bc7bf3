// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package inventory

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// deviceListSchema constrains the shape of the "devices" configuration section.
// Cross-device rules (unique names, jump host references) are checked in New.
const deviceListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["name", "host", "username"],
    "properties": {
      "name":           {"type": "string", "pattern": "^[A-Za-z0-9._-]+$"},
      "host":           {"type": "string", "minLength": 1},
      "port":           {"type": "integer", "minimum": 1, "maximum": 65535},
      "username":       {"type": "string", "minLength": 1},
      "password":       {"type": "string"},
      "passwordEnv":    {"type": "string"},
      "secret":         {"type": "string"},
      "secretEnv":      {"type": "string"},
      "deviceType":     {"type": "string", "enum": ["cisco_ios", "cisco_xe"]},
      "jumpHost":       {"type": "string"},
      "jumpMethod":     {"type": "string", "enum": ["auto", "tunnel", "cli"]},
      "timeoutSeconds": {"type": "integer", "minimum": 1},
      "sessionLog":     {"type": "string"}
    }
  }
}`

var deviceListSchemaLoader = gojsonschema.NewStringLoader(deviceListSchema)

// validateSchema checks devices against deviceListSchema.
func validateSchema(devices []Device) error {
	if devices == nil {
		devices = []Device{}
	}

	result, err := gojsonschema.Validate(deviceListSchemaLoader, gojsonschema.NewGoLoader(devices))
	if err != nil {
		return fmt.Errorf("%w: schema validation: %w", ErrInvalidInventory, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidInventory, strings.Join(problems, "; "))
}
