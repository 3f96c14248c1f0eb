package transforms

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/ahrav/go-wrangle/pipeline"
)

var (
	_ pipeline.Transform = Get{}
	_ pipeline.Transform = Attr{}
	_ pipeline.Transform = Gather{}
	_ pipeline.Transform = Keys{}
	_ pipeline.Transform = Values{}
)

// Get extracts the value at Key from a map, slice, or array. Any other
// input kind fails with ErrNotIndexable; Get is deliberately not defined
// over plain structs, for which Attr is the supported route.
//
// A non-nil Fallback is returned in place of a missing key or an
// out-of-range index. It does not mask ErrNotIndexable or ErrBadKey;
// those report a misconfigured access, not a missing value.
type Get struct {
	Key      any
	Fallback any
}

// Name returns the provenance identifier.
func (Get) Name() string { return "Get" }

// Apply indexes data by the configured key.
func (g Get) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	val, err := index(data, g.Key)
	if err != nil {
		if g.Fallback != nil && (errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrIndexOutOfRange)) {
			return g.Fallback, nil
		}
		return nil, err
	}
	return val, nil
}

// index resolves data[key] for map, slice, and array inputs.
func index(data, key any) (any, error) {
	if data == nil {
		return nil, fmt.Errorf("index %v: %w", key, ErrNotIndexable)
	}
	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Map:
		kv := reflect.ValueOf(key)
		keyType := rv.Type().Key()
		switch {
		case !kv.IsValid():
			return nil, fmt.Errorf("index %v: %w", key, ErrKeyNotFound)
		case kv.Type().AssignableTo(keyType):
		case kv.Type().ConvertibleTo(keyType):
			kv = kv.Convert(keyType)
		default:
			return nil, fmt.Errorf("index %v: %w", key, ErrKeyNotFound)
		}
		item := rv.MapIndex(kv)
		if !item.IsValid() {
			return nil, fmt.Errorf("index %v: %w", key, ErrKeyNotFound)
		}
		return item.Interface(), nil

	case reflect.Slice, reflect.Array:
		i, ok := intKey(key)
		if !ok {
			return nil, fmt.Errorf("index %v (%T): %w", key, key, ErrBadKey)
		}
		if i < 0 || i >= rv.Len() {
			return nil, fmt.Errorf("index %d of %d: %w", i, rv.Len(), ErrIndexOutOfRange)
		}
		return rv.Index(i).Interface(), nil

	default:
		return nil, fmt.Errorf("index %v into %T: %w", key, data, ErrNotIndexable)
	}
}

// intKey normalizes any integer kind to an int index.
func intKey(key any) (int, bool) {
	rv := reflect.ValueOf(key)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true
	default:
		return 0, false
	}
}

// Attr reads the named exported field from a struct or pointer to struct,
// following pointers through any depth. Promoted fields of embedded structs
// resolve the way ordinary field selection does.
type Attr struct {
	Field string
}

// Name returns the provenance identifier.
func (Attr) Name() string { return "Attr" }

// Validate checks that a field name was supplied.
func (a Attr) Validate() error {
	if a.Field == "" {
		return errors.New("field name cannot be empty")
	}
	return nil
}

// Apply reads the configured field from data.
func (a Attr) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	rv := reflect.ValueOf(data)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("attr %q of nil pointer: %w", a.Field, ErrNoField)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("attr %q of %T: %w", a.Field, data, ErrNoField)
	}
	field := rv.FieldByName(a.Field)
	if !field.IsValid() || !field.CanInterface() {
		return nil, fmt.Errorf("attr %q of %s: %w", a.Field, rv.Type().Name(), ErrNoField)
	}
	return field.Interface(), nil
}

// Gather projects a map down to the listed keys, producing a
// map[string]any keyed by the string form of each key. Every key must be
// present; a missing key is an error, never silently dropped.
type Gather struct {
	Keys []any `validate:"min=1"`
}

// Name returns the provenance identifier.
func (Gather) Name() string { return "Gather" }

// Validate checks that at least one key was supplied.
func (g Gather) Validate() error { return validate.Struct(g) }

// Apply builds the projected map.
func (g Gather) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	out := make(map[string]any, len(g.Keys))
	for _, key := range g.Keys {
		val, err := index(data, key)
		if err != nil {
			return nil, err
		}
		out[fmt.Sprint(key)] = val
	}
	return out, nil
}

// Keys lists a map's keys. The order is deterministic: keys are sorted by
// their string form, since Go map iteration order is unspecified.
type Keys struct{}

// Name returns the provenance identifier.
func (Keys) Name() string { return "Keys" }

// Apply returns the map's keys as a []any.
func (Keys) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	rv, err := asMap(data)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(rv)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k.Interface()
	}
	return out, nil
}

// Values lists a map's values, ordered by the sorted string form of their
// keys for determinism.
type Values struct{}

// Name returns the provenance identifier.
func (Values) Name() string { return "Values" }

// Apply returns the map's values as a []any.
func (Values) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	rv, err := asMap(data)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(rv)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = rv.MapIndex(k).Interface()
	}
	return out, nil
}

func asMap(data any) (reflect.Value, error) {
	rv := reflect.ValueOf(data)
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		return reflect.Value{}, fmt.Errorf("got %T: %w", data, ErrNotMap)
	}
	return rv, nil
}

// sortedKeys returns the map's keys sorted by their string form.
func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	return keys
}
