package formats

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLProcessor implements YAML format processing
type YAMLProcessor struct {
	// KnownFields rejects documents with duplicate or unexpected keys when decoding
	// into typed targets.
	KnownFields bool
}

// NewYAMLProcessor creates a new YAML processor
func NewYAMLProcessor() *YAMLProcessor {
	return &YAMLProcessor{}
}

// Name returns the processor name
func (p *YAMLProcessor) Name() string {
	return "yaml"
}

// Extensions returns supported file extensions
func (p *YAMLProcessor) Extensions() []string {
	return []string{".yaml", ".yml"}
}

// Parse parses YAML data into a configuration map
func (p *YAMLProcessor) Parse(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string]any), nil
	}

	var result map[string]any

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(p.KnownFields)

	if err := decoder.Decode(&result); err != nil && !errors.Is(err, io.EOF) {
		return nil, parseError("YAML", err)
	}

	return normalizeMap(result), nil
}

// Marshal renders a configuration map as YAML.
func (p *YAMLProcessor) Marshal(data map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
