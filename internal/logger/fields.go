package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field represents a structured log field
type Field interface {
	Key() string
	Value() interface{}
	// ZapField returns the underlying zap.Field for efficient conversion
	ZapField() zap.Field
}

// ZapField wraps a zap.Field and implements the Field interface.
type ZapField struct {
	zap.Field
	value interface{}
}

func (f ZapField) Key() string {
	return f.Field.Key
}

func (f ZapField) Value() interface{} {
	return f.value
}

func (f ZapField) ZapField() zap.Field {
	return f.Field
}

func wrap(field zap.Field, value interface{}) Field {
	return ZapField{Field: field, value: value}
}

// String creates a string field.
func String(key, val string) Field {
	return wrap(zap.String(key, val), val)
}

// Strings creates a string slice field.
func Strings(key string, val []string) Field {
	return wrap(zap.Strings(key, val), val)
}

// Int creates an int field.
func Int(key string, val int) Field {
	return wrap(zap.Int(key, val), val)
}

// Bool creates a bool field.
func Bool(key string, val bool) Field {
	return wrap(zap.Bool(key, val), val)
}

// Duration creates a duration field.
func Duration(key string, val time.Duration) Field {
	return wrap(zap.Duration(key, val), val)
}

// Error creates an error field under the "error" key.
func Error(err error) Field {
	return wrap(zap.Error(err), err)
}

// Any creates a field from an arbitrary value.
func Any(key string, val interface{}) Field {
	return wrap(zap.Any(key, val), val)
}

// TypeName creates the field used for the type under resolution.
func TypeName(name string) Field {
	return String("type", name)
}

// Resolver creates the field naming the resolver that emitted a log line.
func Resolver(name string) Field {
	return String("resolver", name)
}
