package vbvalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultMaxArtifactBytes is the default maximum accepted artifact size.
const DefaultMaxArtifactBytes = 256 * 1024

// Config is the Validator's configuration.
type Config struct {
	// ForbiddenPatterns is matched as substrings against the artifact text
	// (point 4). Defaults to empty - advisory, opt-in.
	ForbiddenPatterns []string `json:"forbidden_patterns"`
	// AllowedUnresolvedImports exempts specific import paths from failing
	// point 5's "unresolved imports fail unless the deny-list whitelists
	// them" rule.
	AllowedUnresolvedImports []string `json:"allowed_unresolved_imports"`
	// MaxArtifactBytes overrides DefaultMaxArtifactBytes when non-zero.
	MaxArtifactBytes int `json:"max_artifact_bytes"`
}

// configSchema describes Config's JSON shape so malformed validator
// configuration is rejected before it can silently disable a check.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "forbidden_patterns": {"type": ["array", "null"], "items": {"type": "string", "minLength": 1}},
    "allowed_unresolved_imports": {"type": ["array", "null"], "items": {"type": "string", "minLength": 1}},
    "max_artifact_bytes": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`

var compiledConfigSchema = func() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("vbvalidate-config.json", bytes.NewReader([]byte(configSchema))); err != nil {
		panic(fmt.Sprintf("vbvalidate: invalid embedded config schema: %v", err))
	}
	schema, err := compiler.Compile("vbvalidate-config.json")
	if err != nil {
		panic(fmt.Sprintf("vbvalidate: compiling embedded config schema: %v", err))
	}
	return schema
}()

// ValidateConfig checks cfg against configSchema: every forbidden pattern
// and allowed import must be a non-empty string, and max_artifact_bytes
// must not be negative. Nil slices are accepted. Validate does not call it.
func ValidateConfig(ctx context.Context, cfg Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling validator config: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshaling validator config: %w", err)
	}
	if err := compiledConfigSchema.Validate(doc); err != nil {
		return fmt.Errorf("validator config failed schema validation: %w", err)
	}
	return nil
}

func (c Config) maxArtifactBytes() int {
	if c.MaxArtifactBytes > 0 {
		return c.MaxArtifactBytes
	}
	return DefaultMaxArtifactBytes
}
