package transforms

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahrav/go-wrangle/pipeline"
)

var (
	_ pipeline.Transform = FoldInKeys{}
	_ pipeline.Transform = FoldInValue{}
)

// FoldInKeys turns a map of records into a sequence of records, folding
// each outer key into its record under the Into key:
//
//	{"ada": {"age": 36}}  ->  [{"id": "ada", "age": 36}]   // Into: "id"
//
// Records are emitted in sorted outer-key order for determinism. Every
// inner value must itself be a map.
type FoldInKeys struct {
	Into string
}

// Name returns the provenance identifier.
func (FoldInKeys) Name() string { return "FoldInKeys" }

// Validate checks that a target key name was supplied.
func (f FoldInKeys) Validate() error {
	if f.Into == "" {
		return errors.New("fold target key cannot be empty")
	}
	return nil
}

// Apply builds the folded record sequence.
func (f FoldInKeys) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	rv, err := asMap(data)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(rv)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		record, err := mergeRecord(rv.MapIndex(k).Interface(), f.Into, k.Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// FoldInValue distributes the value stored under Key into every other
// record of a map of records, under the Into key:
//
//	{"team": "core", "ada": {"age": 36}}
//	  ->  {"ada": {"group": "core", "age": 36}}   // Key: "team", Into: "group"
//
// The Key entry itself is removed from the result. It must be present.
type FoldInValue struct {
	Key  string
	Into string
}

// Name returns the provenance identifier.
func (FoldInValue) Name() string { return "FoldInValue" }

// Validate checks that both the source key and target key were supplied.
func (f FoldInValue) Validate() error {
	if f.Key == "" || f.Into == "" {
		return errors.New("fold source and target keys cannot be empty")
	}
	return nil
}

// Apply builds the redistributed map of records.
func (f FoldInValue) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	rv, err := asMap(data)
	if err != nil {
		return nil, err
	}
	folded, err := index(data, f.Key)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, rv.Len()-1)
	for _, k := range rv.MapKeys() {
		name := fmt.Sprint(k.Interface())
		if name == f.Key {
			continue
		}
		record, err := mergeRecord(rv.MapIndex(k).Interface(), f.Into, folded)
		if err != nil {
			return nil, err
		}
		out[name] = record
	}
	return out, nil
}

// mergeRecord copies a map-shaped record into a map[string]any with one
// additional entry folded in.
func mergeRecord(record any, name string, value any) (map[string]any, error) {
	rv, err := asMap(record)
	if err != nil {
		return nil, fmt.Errorf("record %T: %w", record, err)
	}
	out := make(map[string]any, rv.Len()+1)
	out[name] = value
	for _, k := range rv.MapKeys() {
		out[fmt.Sprint(k.Interface())] = rv.MapIndex(k).Interface()
	}
	return out, nil
}
