// Package serialize turns arbitrary runtime values into JSON-safe values.
//
// The output is guaranteed to survive json.Marshal: reference cycles are cut,
// nesting depth and key counts are capped, and primitives that JSON rejects
// (NaN, infinities) are mapped to their string forms. Serialize never panics.
package serialize

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"
)

const (
	// maxDepth bounds descent into nested structures; deeper levels are
	// replaced by the depth marker.
	maxDepth = 5
	// maxKeys bounds how many entries of a keyed structure are kept. Excess
	// keys are silently dropped.
	maxKeys = 20

	circularMarker = "[Circular]"
	depthMarker    = "[Max depth]"
)

var (
	errType  = reflect.TypeOf((*error)(nil)).Elem()
	timeType = reflect.TypeOf(time.Time{})
)

// Serialize converts v into a JSON-safe value. The seen set used for cycle
// detection is scoped to this one call and discarded afterward.
func Serialize(v any) any {
	return walk(reflect.ValueOf(v), 0, map[uintptr]struct{}{})
}

func walk(rv reflect.Value, depth int, seen map[uintptr]struct{}) any {
	if !rv.IsValid() {
		return nil
	}
	for rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	// Error-like values keep their diagnostic fields instead of being walked
	// as plain structs, where message and stack would usually be invisible.
	if rv.CanInterface() && rv.Type().Implements(errType) {
		if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map) && rv.IsNil() {
			return nil
		}
		return errorRecord(rv.Interface().(error))
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return safeFloat(rv.Float())
	case reflect.String:
		return rv.String()
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		if marked(seen, rv.Pointer()) {
			return circularMarker
		}
		return walk(rv.Elem(), depth, seen)
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if depth >= maxDepth {
			return depthMarker
		}
		if marked(seen, rv.Pointer()) {
			return circularMarker
		}
		return walkSequence(rv, depth, seen)
	case reflect.Array:
		if depth >= maxDepth {
			return depthMarker
		}
		return walkSequence(rv, depth, seen)
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		if depth >= maxDepth {
			return depthMarker
		}
		if marked(seen, rv.Pointer()) {
			return circularMarker
		}
		return walkMap(rv, depth, seen)
	case reflect.Struct:
		if rv.Type() == timeType && rv.CanInterface() {
			return rv.Interface().(time.Time).Format(time.RFC3339Nano)
		}
		if depth >= maxDepth {
			return depthMarker
		}
		return walkStruct(rv, depth, seen)
	default:
		// chan, func, unsafe pointer, complex: name the type, never the contents.
		return "[" + rv.Type().String() + "]"
	}
}

func walkSequence(rv reflect.Value, depth int, seen map[uintptr]struct{}) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = walk(rv.Index(i), depth+1, seen)
	}
	return out
}

// walkMap keeps at most maxKeys entries. Map iteration order is random in Go,
// so keys are sorted first to make the cap deterministic.
func walkMap(rv reflect.Value, depth int, seen map[uintptr]struct{}) map[string]any {
	keys := rv.MapKeys()
	names := make([]string, len(keys))
	byName := make(map[string]reflect.Value, len(keys))
	for i, k := range keys {
		name := mapKeyString(k)
		names[i] = name
		byName[name] = k
	}
	sort.Strings(names)
	if len(names) > maxKeys {
		names = names[:maxKeys]
	}
	out := make(map[string]any, len(names))
	for _, name := range names {
		out[name] = walk(rv.MapIndex(byName[name]), depth+1, seen)
	}
	return out
}

// walkStruct keeps the first maxKeys exported fields in declaration order.
func walkStruct(rv reflect.Value, depth int, seen map[uintptr]struct{}) map[string]any {
	t := rv.Type()
	out := make(map[string]any)
	for i := 0; i < t.NumField() && len(out) < maxKeys; i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		out[field.Name] = walk(rv.Field(i), depth+1, seen)
	}
	return out
}

func mapKeyString(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

// errorRecord preserves the fields of an error-like value that a structural
// walk would miss.
func errorRecord(err error) map[string]any {
	rec := map[string]any{
		"kind":    "Error",
		"name":    errorName(err),
		"message": errorMessage(err),
	}
	if st, ok := err.(interface{ StackTrace() string }); ok {
		rec["stack"] = st.StackTrace()
	}
	return rec
}

func errorName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "error"
	}
	return t.String()
}

// errorMessage guards against Error implementations that panic; Serialize
// must never throw.
func errorMessage(err error) (msg string) {
	defer func() {
		if recover() != nil {
			msg = "(panic while reading error message)"
		}
	}()
	return err.Error()
}

func safeFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

func marked(seen map[uintptr]struct{}, p uintptr) bool {
	if _, ok := seen[p]; ok {
		return true
	}
	seen[p] = struct{}{}
	return false
}
