package generator

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// outlineSchemaJSON describes the expected outline response: a JSON object
// whose keys are section titles and whose values are either a description
// string or a nested outline of the same shape.
const outlineSchemaJSON = `{
  "$ref": "#/$defs/outline",
  "$defs": {
    "outline": {
      "type": "object",
      "additionalProperties": {
        "anyOf": [
          {"type": "string"},
          {"$ref": "#/$defs/outline"}
        ]
      }
    }
  }
}`

var outlineSchema = sync.OnceValue(func() *jsonschema.Schema {
	return jsonschema.MustCompileString("outline.json", outlineSchemaJSON)
})

// Leaf is one unit of content-generation work: an outline entry whose
// value is a description string.
type Leaf struct {
	Title       string
	Description string
}

// ParseOutline validates raw outline JSON against the outline schema and
// flattens it into an ordered leaf list. Nesting is discarded: leaves of a
// nested sub-outline are appended in place of their container, and the
// container's title is dropped. Key order of the JSON text is preserved,
// which is why flattening walks decoder tokens instead of an unmarshaled
// map.
func ParseOutline(raw string) ([]Leaf, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("outline is not valid JSON: %w", err)
	}
	if err := outlineSchema().Validate(doc); err != nil {
		return nil, fmt.Errorf("outline has unexpected shape: %w", err)
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	if _, err := dec.Token(); err != nil { // opening brace
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}
	leaves, err := flattenObject(dec, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to flatten outline: %w", err)
	}
	return leaves, nil
}

// flattenObject consumes the members of an already-opened JSON object,
// including its closing brace. The outline has been schema-validated, so
// every value is a string or another object.
func flattenObject(dec *json.Decoder, leaves []Leaf) ([]Leaf, error) {
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected outline key %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch v := valTok.(type) {
		case string:
			leaves = append(leaves, Leaf{Title: key, Description: v})
		case json.Delim:
			if v != '{' {
				return nil, fmt.Errorf("unexpected outline value %v for %q", v, key)
			}
			leaves, err = flattenObject(dec, leaves)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unexpected outline value %v for %q", valTok, key)
		}
	}

	if _, err := dec.Token(); err != nil { // closing brace
		return nil, err
	}
	return leaves, nil
}
