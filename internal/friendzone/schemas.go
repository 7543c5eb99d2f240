package friendzone

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const communityDef = `{
  "type": "object",
  "required": ["id", "name"],
  "properties": {
    "id": {"type": "integer"},
    "name": {"type": "string"},
    "description": {"type": ["string", "null"]},
    "category": {"type": ["string", "null"]},
    "member_count": {"type": ["integer", "null"], "minimum": 0},
    "current_member_count": {"type": ["integer", "null"], "minimum": 0},
    "max_members": {"type": ["integer", "null"]},
    "compatibility_score": {"type": ["number", "null"], "minimum": 0, "maximum": 1},
    "tags": {"type": ["array", "null"], "items": {"type": "string"}},
    "is_member": {"type": "boolean"},
    "members": {"type": "array", "items": {"type": "object"}}
  }
}`

func collectionSchema(key, item string) string {
	return fmt.Sprintf(`{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": "string"},
    %q: {"type": "array", "items": %s}
  },
  "if": {"properties": {"success": {"const": true}}},
  "then": {"required": [%q]}
}`, key, item, key)
}

const similarUserDef = `{
  "type": "object",
  "required": ["user", "similarity_score"],
  "properties": {
    "user": {"type": "object", "required": ["id", "name"]},
    "similarity_score": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

var communityDetailSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": "string"},
    "community": ` + communityDef + `
  },
  "if": {"properties": {"success": {"const": true}}},
  "then": {"required": ["community"]}
}`

const statusSchema = `{
  "type": "object",
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": "string"}
  }
}`

const suggestionSchema = `{
  "type": "object",
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": "string"},
    "suggestion": {"type": "string"},
    "response": {"type": "string"}
  }
}`

type schemaName string

const (
	schemaCommunities     schemaName = "communities.json"
	schemaRecommendations schemaName = "recommendations.json"
	schemaSimilarUsers    schemaName = "similar_users.json"
	schemaCommunity       schemaName = "community.json"
	schemaStatus          schemaName = "status.json"
	schemaSuggestion      schemaName = "suggestion.json"
)

type schemaSet map[schemaName]*jsonschema.Schema

func compileSchemas() (schemaSet, error) {
	sources := map[schemaName]string{
		schemaCommunities:     collectionSchema("communities", communityDef),
		schemaRecommendations: collectionSchema("recommendations", communityDef),
		schemaSimilarUsers:    collectionSchema("similar_users", similarUserDef),
		schemaCommunity:       communityDetailSchema,
		schemaStatus:          statusSchema,
		schemaSuggestion:      suggestionSchema,
	}

	set := make(schemaSet, len(sources))
	for name, source := range sources {
		compiled, err := jsonschema.CompileString(string(name), source)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		set[name] = compiled
	}
	return set, nil
}

// validate checks raw against the named schema and decodes it into out.
func (s schemaSet) validate(name schemaName, raw []byte, out interface{}) error {
	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if schema, ok := s[name]; ok {
		if err := schema.Validate(document); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
