package formats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/logger"
)

// Loader reads configuration files, choosing a processor by file extension.
type Loader struct {
	processors map[string]Processor
	logger     logger.Logger
	mu         sync.RWMutex
}

// NewLoader creates a loader with the YAML and JSON processors registered.
func NewLoader(l logger.Logger) *Loader {
	if l == nil {
		l = logger.NewNoopLogger()
	}

	loader := &Loader{
		processors: make(map[string]Processor),
		logger:     l,
	}

	loader.RegisterProcessor(NewYAMLProcessor())
	loader.RegisterProcessor(NewJSONProcessor())

	return loader
}

// RegisterProcessor registers a processor for each of its extensions.
func (l *Loader) RegisterProcessor(p Processor) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, ext := range p.Extensions() {
		l.processors[strings.ToLower(ext)] = p
	}
}

// Extensions returns the registered extensions in a stable preference order.
func (l *Loader) Extensions() []string {
	return []string{".yaml", ".yml", ".json"}
}

// Parse parses raw data with the processor registered for ext.
func (l *Loader) Parse(ext string, data []byte) (map[string]any, error) {
	l.mu.RLock()
	p, ok := l.processors[strings.ToLower(ext)]
	l.mu.RUnlock()

	if !ok {
		return nil, errors.ErrConfigError(fmt.Sprintf("unsupported configuration format %q", ext), nil)
	}

	return p.Parse(data)
}

// LoadFile reads and parses one configuration file.
func (l *Loader) LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ErrConfigError("failed to read "+path, err)
	}

	result, err := l.Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, errors.ErrConfigError("failed to load "+path, err)
	}

	l.logger.Debug("configuration file loaded",
		logger.String("path", path),
		logger.Int("keys", len(result)),
	)

	return result, nil
}

// Find returns the first existing file named base plus one of the supported
// extensions inside dir.
func (l *Loader) Find(dir, base string) (string, bool) {
	for _, ext := range l.Extensions() {
		candidate := filepath.Join(dir, base+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
