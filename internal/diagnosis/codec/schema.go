package codec

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// compactSchema pins down the compact wire shape before decoding. It is
// deliberately strict about the result tuple so a payload with renamed
// keys but the wrong structure fails here instead of producing a
// half-empty session.
const compactSchema = `{
	"type": "object",
	"properties": {
		"r": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"i":  {"type": "integer"},
					"n":  {"type": "string"},
					"k":  {"type": "string"},
					"c":  {"type": "string"},
					"cn": {"type": ["string", "null"]},
					"s":  {"type": "number"},
					"rk": {"type": "integer", "minimum": 1}
				},
				"required": ["i", "n", "s", "rk"]
			}
		},
		"f": {
			"type": "object",
			"properties": {
				"i":  {"type": "string"},
				"t":  {"type": "string"},
				"p":  {"type": "string"},
				"b":  {"type": "string"},
				"cn": {"type": "string"}
			}
		}
	}
}`

var compactSchemaLoader = gojsonschema.NewStringLoader(compactSchema)

func validateCompact(payload string) error {
	result, err := gojsonschema.Validate(compactSchemaLoader, gojsonschema.NewStringLoader(payload))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("compact payload invalid: %v", result.Errors())
	}
	return nil
}
