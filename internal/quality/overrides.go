package quality

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
)

//go:embed overrides.yaml
var defaultOverrides []byte

// Override replaces computed signals for one election.
type Override struct {
	SourceType     constants.SourceType `yaml:"source_type,omitempty"`
	CrossValidated *bool                `yaml:"cross_validated,omitempty"`
	Notes          string               `yaml:"notes,omitempty"`
}

// Overrides are keyed by election date (YYYY-MM-DD).
type Overrides map[string]Override

type overridesFile struct {
	Overrides Overrides `yaml:"overrides"`
}

func overridesSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"overrides"},
		"properties": map[string]any{
			"overrides": map[string]any{
				"type":          "object",
				"propertyNames": map[string]any{"pattern": `^\d{4}-\d{2}-\d{2}$`},
				"additionalProperties": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"minProperties":        1,
					"properties": map[string]any{
						"source_type": map[string]any{"enum": []string{
							string(constants.SourceDigitalPDF), string(constants.SourceExcel),
							string(constants.SourceScannedPDF), string(constants.SourceManualEntry),
						}},
						"cross_validated": map[string]any{"type": "boolean"},
						"notes":           map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}

// LoadOverrides reads the override table from path, or the embedded default
// when path is empty. The document is checked against a JSON schema first.
func LoadOverrides(path string) (Overrides, error) {
	data := defaultOverrides
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read overrides: %w", err)
		}
		data = b
	}
	return ParseOverrides(data)
}

// ParseOverrides decodes and validates a YAML override table.
func ParseOverrides(data []byte) (Overrides, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, common.ValidationError("overrides are not valid YAML", err)
	}
	if err := validateAgainstSchema(overridesSchema(), raw); err != nil {
		return nil, common.ValidationError("overrides do not match schema", err)
	}
	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, common.ValidationError("decode overrides", err)
	}
	if f.Overrides == nil {
		f.Overrides = Overrides{}
	}
	return f.Overrides, nil
}

func validateAgainstSchema(schemaMap map[string]any, doc any) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("overrides.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("overrides.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	// round-trip through JSON so the validator sees plain JSON types
	jb, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal overrides: %w", err)
	}
	var v any
	if err := json.Unmarshal(jb, &v); err != nil {
		return fmt.Errorf("unmarshal overrides: %w", err)
	}
	return schema.Validate(v)
}
