package formats

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONProcessor implements JSON format processing
type JSONProcessor struct{}

// NewJSONProcessor creates a new JSON processor
func NewJSONProcessor() *JSONProcessor {
	return &JSONProcessor{}
}

// Name returns the processor name
func (p *JSONProcessor) Name() string {
	return "json"
}

// Extensions returns supported file extensions
func (p *JSONProcessor) Extensions() []string {
	return []string{".json"}
}

// Parse parses JSON data into a configuration map. Numbers that are whole
// are kept as int so they decode into integer parameters without loss.
func (p *JSONProcessor) Parse(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string]any), nil
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, parseError("JSON", err)
	}

	return normalizeMap(intify(result).(map[string]any)), nil
}

func intify(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			v[key] = intify(val)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = intify(item)
		}
		return v
	case float64:
		if v == float64(int64(v)) {
			return int(v)
		}
		return v
	default:
		return value
	}
}
