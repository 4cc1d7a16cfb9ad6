package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/xraph/cohesion/internal/errors"
)

// DriverKey is the section key that selects a concrete implementation type
// for an abstract slot.
const DriverKey = "driver"

// Config is a named node of the hierarchical configuration tree. Values are
// scalars, lists or nested map[string]any sections. Sub-nodes returned by
// GetConfig are detached copies, so resolvers may hold on to them.
type Config struct {
	name string
	data map[string]any
	mu   sync.RWMutex
}

// New creates a configuration node named name over data. The map is copied.
func New(name string, data map[string]any) *Config {
	return &Config{
		name: name,
		data: deepCopyMap(data),
	}
}

// Empty returns an empty configuration node.
func Empty(name string) *Config {
	return New(name, nil)
}

// Name returns the node's name (the key it was loaded from).
func (c *Config) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Get returns the value at a dotted path.
func (c *Config) Get(key string) any {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.getValue(key)
}

// Has reports whether a value exists at the dotted path.
func (c *Config) Has(key string) bool {
	return c.Get(key) != nil
}

// GetString returns the value at key as a string, or def when absent.
func (c *Config) GetString(key string, def ...string) string {
	value := c.Get(key)
	if value == nil {
		if len(def) > 0 {
			return def[0]
		}
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetBool returns the value at key as a bool, or def when absent or unparsable.
func (c *Config) GetBool(key string, def ...bool) bool {
	fallback := len(def) > 0 && def[0]
	switch v := c.Get(key).(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	case int:
		return v != 0
	default:
		return fallback
	}
}

// GetInt returns the value at key as an int, or def when absent or unparsable.
func (c *Config) GetInt(key string, def ...int) int {
	fallback := 0
	if len(def) > 0 {
		fallback = def[0]
	}
	switch v := c.Get(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}
		return i
	default:
		return fallback
	}
}

// GetDuration returns the value at key as a duration. Strings are parsed with
// time.ParseDuration and bare numbers are read as seconds.
func (c *Config) GetDuration(key string, def ...time.Duration) time.Duration {
	var fallback time.Duration
	if len(def) > 0 {
		fallback = def[0]
	}
	switch v := c.Get(key).(type) {
	case time.Duration:
		return v
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return fallback
		}
		return d
	case int, int64, float64:
		d, _ := secondsToDuration(v)
		return d
	default:
		return fallback
	}
}

// GetStringSlice returns the value at key as a slice of strings.
func (c *Config) GetStringSlice(key string) []string {
	switch v := c.Get(key).(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	default:
		return nil
	}
}

// GetConfig returns the section at a dotted path as a detached node, or nil
// when no section exists there.
func (c *Config) GetConfig(key string) *Config {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	section, ok := c.getValue(key).(map[string]any)
	if !ok {
		return nil
	}
	return New(lastSegment(key), section)
}

// Child returns the section stored under the literal key, even when the key
// itself contains dots.
func (c *Config) Child(key string) *Config {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	section, ok := c.data[key].(map[string]any)
	if !ok {
		return nil
	}
	return New(key, section)
}

// GetConfigFold returns the top-level section whose key equals name under
// Unicode case folding. An exact match wins over a folded one.
func (c *Config) GetConfigFold(name string) *Config {
	if c == nil {
		return nil
	}
	if exact := c.Child(name); exact != nil {
		return exact
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, key := range sortedKeys(c.data) {
		if !strings.EqualFold(key, name) {
			continue
		}
		if section, ok := c.data[key].(map[string]any); ok {
			return New(key, section)
		}
	}
	return nil
}

// Driver returns the value of the driver key, if set.
func (c *Config) Driver() (string, bool) {
	if c == nil {
		return "", false
	}
	value, ok := c.Get(DriverKey).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Set stores value at a dotted path, creating intermediate sections.
func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		c.data = make(map[string]any)
	}
	keys := strings.Split(key, ".")
	current := c.data
	for _, k := range keys[:len(keys)-1] {
		next, ok := current[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[k] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = normalizeValue(value)
}

// Merge deep-merges data into the section at key. An empty key merges into
// the root.
func (c *Config) Merge(key string, data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		c.data = make(map[string]any)
	}
	target := c.data
	if key != "" {
		for _, k := range strings.Split(key, ".") {
			next, ok := target[k].(map[string]any)
			if !ok {
				next = make(map[string]any)
				target[k] = next
			}
			target = next
		}
	}
	mergeData(target, deepCopyMap(data))
}

// Load merges data under prefix, or at the root when prefix is empty.
func (c *Config) Load(data map[string]any, prefix string) {
	c.Merge(prefix, data)
}

// Overwrite replaces the whole tree with a copy of data.
func (c *Config) Overwrite(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = deepCopyMap(data)
}

// Clone returns a deep copy of the node.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return New(c.name, c.data)
}

// Keys returns the sorted top-level keys.
func (c *Config) Keys() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.data)
}

// AllSettings returns a deep copy of the whole tree.
func (c *Config) AllSettings() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopyMap(c.data)
}

// Decode decodes the node into target using mapstructure with weak typing.
func (c *Config) Decode(target any) error {
	return DecodeValue(c.AllSettings(), target)
}

// DecodeValue decodes input into target with weakly typed conversion and
// string-to-duration support.
func DecodeValue(input any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			secondsToDurationHook(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.ErrConfigError("failed to create decoder", err)
	}
	if err := decoder.Decode(input); err != nil {
		return errors.ErrConfigError("failed to decode configuration", err)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// secondsToDurationHook reads bare numbers as seconds, as GetDuration does.
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}
		if d, ok := secondsToDuration(data); ok {
			return d, nil
		}
		return data, nil
	}
}

func secondsToDuration(v any) (time.Duration, bool) {
	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Second, true
	case int64:
		return time.Duration(n) * time.Second, true
	case float64:
		return time.Duration(n * float64(time.Second)), true
	default:
		return 0, false
	}
}

// ConvertTo decodes value into a new value of type t.
func ConvertTo(value any, t reflect.Type) (reflect.Value, error) {
	if value != nil && reflect.TypeOf(value).AssignableTo(t) {
		return reflect.ValueOf(value), nil
	}
	target := reflect.New(t)
	if err := DecodeValue(value, target.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return target.Elem(), nil
}

func (c *Config) getValue(key string) any {
	if key == "" {
		return c.data
	}
	if value, ok := c.data[key]; ok {
		return value
	}

	keys := strings.Split(key, ".")
	current := any(c.data)

	for _, k := range keys {
		switch v := current.(type) {
		case map[string]any:
			current = v[k]
		default:
			return nil
		}
		if current == nil {
			return nil
		}
	}

	return current
}

// mergeData recursively merges source into target. Sections merge, every
// other value in source replaces the one in target.
func mergeData(target, source map[string]any) {
	for key, value := range source {
		if sourceMap, ok := value.(map[string]any); ok {
			if targetMap, ok := target[key].(map[string]any); ok {
				mergeData(targetMap, sourceMap)
				continue
			}
		}
		target[key] = value
	}
}

func deepCopyMap(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		out[key] = deepCopyValue(value)
	}
	return out
}

func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return deepCopyMap(v)
	case map[any]any:
		return deepCopyMap(normalizeValue(v).(map[string]any))
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return value
	}
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[fmt.Sprintf("%v", key)] = normalizeValue(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = normalizeValue(val)
		}
		return out
	default:
		return value
	}
}

func sortedKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func lastSegment(key string) string {
	if idx := strings.LastIndex(key, "."); idx >= 0 {
		return key[idx+1:]
	}
	return key
}
