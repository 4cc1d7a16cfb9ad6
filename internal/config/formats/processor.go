package formats

import (
	"fmt"

	"github.com/xraph/cohesion/internal/errors"
)

// Processor parses one configuration file format into a configuration map.
type Processor interface {
	Name() string
	Extensions() []string
	Parse(data []byte) (map[string]any, error)
}

// normalize converts decoder output into map[string]any trees so that every
// nested section can be navigated the same way regardless of format.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			keyStr, ok := key.(string)
			if !ok {
				keyStr = fmt.Sprintf("%v", key)
			}
			out[keyStr] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	default:
		return value
	}
}

func normalizeMap(data map[string]any) map[string]any {
	if data == nil {
		return make(map[string]any)
	}
	return normalize(data).(map[string]any)
}

func parseError(format string, cause error) error {
	return errors.ErrConfigError("failed to parse "+format, cause)
}
