package typeinfo

import (
	"fmt"
	"path"
	"reflect"
	"strings"
	"unicode"
)

// ShortName returns the part of a qualified name after the last dot.
func ShortName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// Namespace returns the part of a qualified name before the last dot.
func Namespace(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[:idx]
	}
	return ""
}

// Join builds a qualified name from its parts, skipping empty ones.
func Join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// DerivedName names an unregistered Go type as <package>.<Type>, pointers
// stripped.
func DerivedName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if pkg := t.PkgPath(); pkg != "" {
		return path.Base(pkg) + "." + t.Name()
	}
	return t.Name()
}

// ParamName derives a parameter name from its type: the type name with the
// leading capitals lowered, so *config.Config is "config", structure.DAO is
// "dao" and *redis.Client is "client". Unnamed types fall back to argN.
func ParamName(t reflect.Type, index int) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return fmt.Sprintf("arg%d", index)
	}
	return lowerLeading(t.Name())
}

func lowerLeading(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			// keep the capital that starts the next word: HTTPClient -> httpClient
			if i > 1 {
				runes[i-1] = unicode.ToUpper(runes[i-1])
			}
			break
		}
		runes[i] = unicode.ToLower(r)
	}
	return string(runes)
}
