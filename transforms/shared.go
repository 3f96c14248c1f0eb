// Package transforms provides the leaf pipeline.Transform implementations
// used to assemble mapping pipelines: value access (Get, Attr, Gather),
// shaping (Map, Filter, Flatten, FoldInKeys), branching (If), and recursive
// model construction (Create, GetOrCreate).
//
// Transforms are immutable value objects declared as struct literals and
// composed with pipeline.Then:
//
//	t := pipeline.Then(transforms.Get{Key: "age"}, transforms.Default{Value: 0})
package transforms

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Common errors returned by the data-access transforms.
var (
	// ErrNotIndexable is returned when Get or Gather receives data that is
	// not a map, slice, or array.
	ErrNotIndexable = errors.New("data is not indexable")

	// ErrKeyNotFound is returned when a map has no entry for the requested
	// key and no fallback applies.
	ErrKeyNotFound = errors.New("key not found")

	// ErrIndexOutOfRange is returned when a sequence index is out of range
	// and no fallback applies.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrBadKey is returned when a sequence is indexed with a non-integer
	// key. A Get fallback never masks it.
	ErrBadKey = errors.New("sequence key must be an integer")

	// ErrNoField is returned when Attr names a field the value does not
	// have or that is not exported.
	ErrNoField = errors.New("no such field")

	// ErrNotIterable is returned when a sequence transform receives data
	// that is not a slice or array.
	ErrNotIterable = errors.New("data is not iterable")

	// ErrNotMap is returned when a map transform receives non-map data.
	ErrNotMap = errors.New("data is not a map")

	// ErrTypeMismatch is returned when Cast receives data of a dynamic
	// type other than its input type parameter.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNilFunc is returned by Validate when a transform requires a
	// function that was not supplied.
	ErrNilFunc = errors.New("func cannot be nil")

	// ErrNilTransform is returned by Validate when a transform requires a
	// child transform that was not supplied.
	ErrNilTransform = errors.New("child transform cannot be nil")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// truthy reports the zero-value semantics used by Default when no condition
// is supplied: nil, false, numeric zero, and empty strings, slices, maps,
// and channels are falsy; everything else, including any struct, is truthy.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Struct:
		return true
	default:
		return !rv.IsZero()
	}
}
