package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors
const (
	CodeConfigError          = "CONFIG_ERROR"
	CodeUnknownType          = "UNKNOWN_TYPE"
	CodeNoConstructor        = "NO_CONSTRUCTOR"
	CodeCyclicDependency     = "CYCLIC_DEPENDENCY"
	CodeUnknownAccessType    = "UNKNOWN_ACCESS_TYPE"
	CodeInvalidAccess        = "INVALID_ACCESS"
	CodeInvalidDriver        = "INVALID_DRIVER"
	CodeMissingConfiguration = "MISSING_CONFIGURATION"
	CodeInvalidProperty      = "INVALID_PROPERTY"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeTypeRegistration     = "TYPE_REGISTRATION"
)

// CodeInvalidClass is the historical name of CodeInvalidDriver. Both kinds are
// reported when a driver-selected or derived type is missing or cannot be built.
const CodeInvalidClass = CodeInvalidDriver

// =============================================================================
// RESOLVE ERRORS
// =============================================================================

// Standard resolver errors
var (
	ErrNilRegistry   = errors.New("type registry is nil")
	ErrTypeMismatch  = errors.New("resolved instance type mismatch")
	ErrInvalidCtor   = errors.New("constructor must be a function returning (T) or (T, error)")
	ErrNotResolvable = errors.New("type is not instantiable")
)

// ResolveError wraps a failure with the type whose resolution failed.
type ResolveError struct {
	Type      string
	Operation string
	Err       error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %s: %v", e.Type, e.Operation, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface for ResolveError
func (e *ResolveError) Is(target error) bool {
	t, ok := target.(*ResolveError)
	if !ok {
		return false
	}
	return (e.Type == "" || t.Type == "" || e.Type == t.Type) &&
		(e.Operation == "" || t.Operation == "" || e.Operation == t.Operation)
}

// NewResolveError creates a new resolve error
func NewResolveError(typeName, operation string, err error) *ResolveError {
	return &ResolveError{
		Type:      typeName,
		Operation: operation,
		Err:       err,
	}
}

// =============================================================================
// COHESION ERROR (STRUCTURED ERROR)
// =============================================================================

// CohesionError represents a structured error with context
type CohesionError struct {
	Code      string
	Message   string
	Cause     error
	Timestamp time.Time
	Context   map[string]interface{}
}

func (e *CohesionError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CohesionError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is interface for CohesionError.
// Compares by error code, allowing matching against sentinel errors.
func (e *CohesionError) Is(target error) bool {
	t, ok := target.(*CohesionError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithContext adds context to the error
func (e *CohesionError) WithContext(key string, value interface{}) *CohesionError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func newError(code, message string, cause error, ctx map[string]interface{}) *CohesionError {
	if ctx == nil {
		ctx = make(map[string]interface{})
	}
	return &CohesionError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   ctx,
	}
}

// ErrConfigError creates a config error
func ErrConfigError(message string, cause error) *CohesionError {
	return newError(CodeConfigError, message, cause, nil)
}

// ErrUnknownType reports a requested or referenced type that is not registered.
func ErrUnknownType(typeName string) *CohesionError {
	return newError(CodeUnknownType, typeName+" doesn't exist", nil,
		map[string]interface{}{"type": typeName})
}

// ErrNoConstructor reports a type whose ancestor chain declares no constructor.
func ErrNoConstructor(typeName string) *CohesionError {
	return newError(CodeNoConstructor, "missing constructor for "+typeName, nil,
		map[string]interface{}{"type": typeName})
}

// ErrCyclicDependency reports a dependency chain that revisits a type under
// construction. The chain runs from the outermost request to the repeated type.
func ErrCyclicDependency(chain []string) *CohesionError {
	cp := append([]string(nil), chain...)
	return newError(CodeCyclicDependency,
		"cyclic dependency discovered while loading "+strings.Join(cp, " -> "), nil,
		map[string]interface{}{"chain": cp})
}

// ErrUnknownAccessType reports a driver slot with no configuration section.
func ErrUnknownAccessType(slot string) *CohesionError {
	return newError(CodeUnknownAccessType,
		"unknown access type: "+slot+" not set in the configuration", nil,
		map[string]interface{}{"slot": slot})
}

// ErrInvalidAccess reports a persistence driver that cannot be selected or built.
func ErrInvalidAccess(message string, cause error) *CohesionError {
	return newError(CodeInvalidAccess, message, cause, nil)
}

// ErrInvalidDriver reports a driver or derived type that is missing or not instantiable.
func ErrInvalidDriver(typeName, message string) *CohesionError {
	return newError(CodeInvalidDriver, message, nil,
		map[string]interface{}{"type": typeName})
}

// ErrMissingConfiguration reports an absent configuration section or value.
func ErrMissingConfiguration(message string) *CohesionError {
	return newError(CodeMissingConfiguration, message, nil, nil)
}

// ErrInvalidProperty reports a constructor parameter no strategy could satisfy.
func ErrInvalidProperty(typeName, param string, cause error) *CohesionError {
	return newError(CodeInvalidProperty,
		"invalid property "+param+" of "+typeName, cause,
		map[string]interface{}{"type": typeName, "param": param})
}

// ErrUnauthorized reports a principal change that the current principal may not perform.
func ErrUnauthorized(message string) *CohesionError {
	return newError(CodeUnauthorized, message, nil, nil)
}

// ErrTypeRegistration reports an invalid type registration.
func ErrTypeRegistration(typeName string, cause error) *CohesionError {
	return newError(CodeTypeRegistration, "cannot register "+typeName, cause,
		map[string]interface{}{"type": typeName})
}

// =============================================================================
// STANDARD ERRORS PACKAGE INTEGRATION
// =============================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// =============================================================================
// SENTINEL ERRORS (for use with Is)
// =============================================================================

// Sentinel errors that can be used with errors.Is comparisons
var (
	ErrConfigErrorSentinel          = &CohesionError{Code: CodeConfigError}
	ErrUnknownTypeSentinel          = &CohesionError{Code: CodeUnknownType}
	ErrNoConstructorSentinel        = &CohesionError{Code: CodeNoConstructor}
	ErrCyclicDependencySentinel     = &CohesionError{Code: CodeCyclicDependency}
	ErrUnknownAccessTypeSentinel    = &CohesionError{Code: CodeUnknownAccessType}
	ErrInvalidAccessSentinel        = &CohesionError{Code: CodeInvalidAccess}
	ErrInvalidDriverSentinel        = &CohesionError{Code: CodeInvalidDriver}
	ErrMissingConfigurationSentinel = &CohesionError{Code: CodeMissingConfiguration}
	ErrInvalidPropertySentinel      = &CohesionError{Code: CodeInvalidProperty}
	ErrUnauthorizedSentinel         = &CohesionError{Code: CodeUnauthorized}
	ErrTypeRegistrationSentinel     = &CohesionError{Code: CodeTypeRegistration}

	// ErrInvalidClassSentinel matches the same errors as ErrInvalidDriverSentinel.
	ErrInvalidClassSentinel = ErrInvalidDriverSentinel
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// Code returns the code of the first CohesionError in err's chain.
func Code(err error) string {
	var ce *CohesionError
	if As(err, &ce) {
		return ce.Code
	}
	return ""
}

// CycleChain extracts the dependency chain from a cyclic dependency error.
func CycleChain(err error) ([]string, bool) {
	var ce *CohesionError
	if !As(err, &ce) || ce.Code != CodeCyclicDependency {
		return nil, false
	}
	chain, ok := ce.Context["chain"].([]string)
	return chain, ok
}

// IsUnknownType checks if the error is an unknown type error
func IsUnknownType(err error) bool {
	return Is(err, ErrUnknownTypeSentinel)
}

// IsCyclicDependency checks if the error is a cyclic dependency error
func IsCyclicDependency(err error) bool {
	return Is(err, ErrCyclicDependencySentinel)
}

// IsMissingConfiguration checks if the error is a missing configuration error
func IsMissingConfiguration(err error) bool {
	return Is(err, ErrMissingConfigurationSentinel)
}

// IsInvalidProperty checks if the error is an invalid property error
func IsInvalidProperty(err error) bool {
	return Is(err, ErrInvalidPropertySentinel)
}
