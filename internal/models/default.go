package models

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
)

//go:embed default_content.yaml
var defaultContentYAML []byte

// DefaultDocument returns the document bundled with the binary. Display
// pages fall back to it when no document has been stored yet.
func DefaultDocument() (*Document, error) {
	doc, err := DecodeYAML(defaultContentYAML)
	if err != nil {
		return nil, fmt.Errorf("bundled content: %w", err)
	}
	return doc, nil
}

// DecodeYAML decodes a document written as YAML. It goes through the same
// migration and validation as a JSON write.
func DecodeYAML(raw []byte) (*Document, error) {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, apperr.Validation("payload is not valid YAML: %v", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperr.Validation("payload must be a mapping")
	}
	// yaml.v3 decodes nested mappings as map[string]any already, so the
	// object can go straight through the JSON path.
	buf, err := json.Marshal(obj)
	if err != nil {
		return nil, apperr.Validation("re-encode YAML payload: %v", err)
	}
	return DecodeDocument(buf)
}

// EncodeYAML renders d using the yaml field names.
func EncodeYAML(d *Document) ([]byte, error) {
	return yaml.Marshal(d)
}
