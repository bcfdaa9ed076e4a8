// Package canonicalize provides deterministic serialization of JSON-like
// values for byte-reproducible SVJIF artifacts.
//
// Two forms are offered: Stringify, an indent-aware stable form used for
// emitted artifacts, and Compact, the RFC 8785 canonical compact form used
// for receipt bytes and content hashing.
package canonicalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// maxSafeInteger is the largest integer exactly representable as an IEEE-754
// double. Integers beyond this magnitude would silently lose precision in any
// JSON reader, so they are rejected instead.
const maxSafeInteger = 1<<53 - 1

// SerializationError reports a value that cannot be canonically serialized.
type SerializationError struct {
	Type   string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("canonicalize: cannot serialize %s: %s", e.Type, e.Reason)
}

// absent marks a value that standard JSON text cannot represent. It is
// omitted from objects and replaced with null inside sequences, mirroring
// JSON-text semantics so round-tripping through any JSON reader is lossless
// for the representable subset.
type absentValue struct{}

var absent = absentValue{}

// Stringify returns the deterministic JSON encoding of v.
//
// Object keys are sorted bytewise, recursively. Sequence order is preserved.
// indent > 0 pretty-prints with that many spaces per level without affecting
// key order or value semantics. Self-referential structures and integers
// beyond the safe numeric range fail with *SerializationError.
func Stringify(v any, indent int) (string, error) {
	norm, err := normalize(v, make(map[visitKey]bool))
	if err != nil {
		return "", err
	}
	if _, ok := norm.(absentValue); ok {
		// A bare unrepresentable value has no object to be omitted from.
		norm = nil
	}
	var buf bytes.Buffer
	if err := writeValue(&buf, norm, indent, 0); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// visitKey identifies a reference currently on the normalization path.
// Tracking (pointer, kind) pairs detects cycles without rejecting diamonds.
type visitKey struct {
	ptr  uintptr
	kind reflect.Kind
}

//nolint:gocognit // exhaustive type switch over the JSON-like value space
func normalize(v any, path map[visitKey]bool) (any, error) {
	if v == nil {
		return nil, nil
	}

	// Values exposing a custom canonical form are converted first, then
	// re-normalized so the conversion cannot smuggle in unstable encoding.
	if m, ok := v.(json.Marshaler); ok {
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, nil
		}
		raw, err := m.MarshalJSON()
		if err != nil {
			return nil, &SerializationError{Type: fmt.Sprintf("%T", v), Reason: err.Error()}
		}
		return normalizeRaw(raw, path)
	}

	switch t := v.(type) {
	case bool, string:
		return t, nil
	case json.Number:
		return normalizeNumber(t)
	case float32:
		return normalizeFloat(float64(t)), nil
	case float64:
		return normalizeFloat(t), nil
	case int:
		return checkSafeInt(int64(t))
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return checkSafeInt(t)
	case uint:
		return checkSafeUint(uint64(t))
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		return checkSafeUint(t)
	}

	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Pointer, reflect.Interface:
		if val.IsNil() {
			return nil, nil
		}
		if val.Kind() == reflect.Pointer {
			key := visitKey{ptr: val.Pointer(), kind: reflect.Pointer}
			if path[key] {
				return nil, &SerializationError{Type: fmt.Sprintf("%T", v), Reason: "circular reference"}
			}
			path[key] = true
			defer delete(path, key)
		}
		return normalize(val.Elem().Interface(), path)

	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return nil, &SerializationError{Type: val.Type().String(), Reason: "non-string map keys"}
		}
		key := visitKey{ptr: val.Pointer(), kind: reflect.Map}
		if path[key] {
			return nil, &SerializationError{Type: val.Type().String(), Reason: "circular reference"}
		}
		path[key] = true
		defer delete(path, key)

		out := make(map[string]any, val.Len())
		iter := val.MapRange()
		for iter.Next() {
			member, err := normalize(iter.Value().Interface(), path)
			if err != nil {
				return nil, err
			}
			if _, skip := member.(absentValue); skip {
				continue // unrepresentable members are omitted from objects
			}
			out[iter.Key().String()] = member
		}
		return out, nil

	case reflect.Slice, reflect.Array:
		if val.Kind() == reflect.Slice {
			if val.IsNil() {
				return nil, nil
			}
			key := visitKey{ptr: val.Pointer(), kind: reflect.Slice}
			if path[key] {
				return nil, &SerializationError{Type: val.Type().String(), Reason: "circular reference"}
			}
			path[key] = true
			defer delete(path, key)
		}
		out := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			elem, err := normalize(val.Index(i).Interface(), path)
			if err != nil {
				return nil, err
			}
			if _, skip := elem.(absentValue); skip {
				elem = nil // unrepresentable elements become null in sequences
			}
			out[i] = elem
		}
		return out, nil

	case reflect.Struct:
		// Structs go through encoding/json once to honor field tags, then the
		// generic tree is re-normalized for stable ordering.
		raw, err := json.Marshal(v)
		if err != nil {
			reason := err.Error()
			var unsupported *json.UnsupportedValueError
			if errors.As(err, &unsupported) && strings.Contains(unsupported.Str, "cycle") {
				reason = "circular reference"
			}
			return nil, &SerializationError{Type: val.Type().String(), Reason: reason}
		}
		return normalizeRaw(raw, path)

	// Named primitive types reach here; the earlier type switch only
	// matches exact predeclared types.
	case reflect.String:
		return val.String(), nil
	case reflect.Bool:
		return val.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return checkSafeInt(val.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return checkSafeUint(val.Uint())
	case reflect.Float32, reflect.Float64:
		return normalizeFloat(val.Float()), nil

	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return absent, nil

	default:
		return absent, nil
	}
}

func normalizeRaw(raw []byte, path map[visitKey]bool) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, &SerializationError{Type: "json.RawMessage", Reason: err.Error()}
	}
	return normalize(generic, path)
}

func normalizeNumber(n json.Number) (any, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &SerializationError{Type: "integer " + s, Reason: "exceeds safe numeric range"}
		}
		return checkSafeInt(i)
	}
	return n, nil
}

func normalizeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func checkSafeInt(i int64) (any, error) {
	if i > maxSafeInteger || i < -maxSafeInteger {
		return nil, &SerializationError{
			Type:   "integer " + strconv.FormatInt(i, 10),
			Reason: "exceeds safe numeric range",
		}
	}
	return i, nil
}

func checkSafeUint(u uint64) (any, error) {
	if u > maxSafeInteger {
		return nil, &SerializationError{
			Type:   "integer " + strconv.FormatUint(u, 10),
			Reason: "exceeds safe numeric range",
		}
	}
	return int64(u), nil
}

func writeValue(buf *bytes.Buffer, v any, indent, depth int) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		return writeString(buf, t)
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
	case float64:
		b, err := json.Marshal(t)
		if err != nil {
			return &SerializationError{Type: "float64", Reason: err.Error()}
		}
		buf.Write(b)
	case json.Number:
		buf.WriteString(t.String())
	case []any:
		return writeArray(buf, t, indent, depth)
	case map[string]any:
		return writeObject(buf, t, indent, depth)
	default:
		return &SerializationError{Type: fmt.Sprintf("%T", v), Reason: "unexpected normalized value"}
	}
	return nil
}

func writeArray(buf *bytes.Buffer, arr []any, indent, depth int) error {
	if len(arr) == 0 {
		buf.WriteString("[]")
		return nil
	}
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeNewline(buf, indent, depth+1)
		if err := writeValue(buf, elem, indent, depth+1); err != nil {
			return err
		}
	}
	writeNewline(buf, indent, depth)
	buf.WriteByte(']')
	return nil
}

func writeObject(buf *bytes.Buffer, obj map[string]any, indent, depth int) error {
	if len(obj) == 0 {
		buf.WriteString("{}")
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeNewline(buf, indent, depth+1)
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if indent > 0 {
			buf.WriteByte(' ')
		}
		if err := writeValue(buf, obj[k], indent, depth+1); err != nil {
			return err
		}
	}
	writeNewline(buf, indent, depth)
	buf.WriteByte('}')
	return nil
}

func writeNewline(buf *bytes.Buffer, indent, depth int) {
	if indent <= 0 {
		return
	}
	buf.WriteByte('\n')
	for i := 0; i < indent*depth; i++ {
		buf.WriteByte(' ')
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false) // canonical form never HTML-escapes
	if err := enc.Encode(s); err != nil {
		return &SerializationError{Type: "string", Reason: err.Error()}
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}
