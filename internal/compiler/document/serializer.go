package document

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Serialization formats accepted by Serialize
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Serialize renders a document as JSON or YAML. Map keys are emitted in
// sorted order by both encoders, so equal documents serialize identically.
func Serialize(doc Map, format string) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document cannot be nil")
	}

	switch format {
	case "", FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to serialize document: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize document: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
}
