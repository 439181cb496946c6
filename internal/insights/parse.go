package insights

import (
	"encoding/json"
	"strings"
)

// A strategy tries to read a T out of a raw completion. Completions are
// only loosely shaped ("JSON mode" is a hint, and models still wrap arrays
// in objects or add prose around them), so each operation declares an
// ordered ladder of strategies and takes the first one that matches.
type strategy[T any] func(raw string) (T, bool)

// firstMatch runs the ladder in order and stops at the first success.
func firstMatch[T any](raw string, ladder ...strategy[T]) (T, bool) {
	for _, try := range ladder {
		if v, ok := try(raw); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// direct decodes the whole completion as T.
func direct[T any]() strategy[T] {
	return func(raw string) (T, bool) {
		var v T
		if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
			return v, false
		}
		return v, true
	}
}

// unwrapped decodes the completion as an object and then decodes the value
// under key as T. {"tags": [...]} with key "tags" yields the array.
func unwrapped[T any](key string) strategy[T] {
	return func(raw string) (T, bool) {
		var v T
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
			return v, false
		}
		inner, ok := obj[key]
		if !ok {
			return v, false
		}
		if err := json.Unmarshal(inner, &v); err != nil {
			return v, false
		}
		return v, true
	}
}

// extracted cuts the span from the first left to the last right delimiter
// and decodes that as T. It recovers answers like
//
//	Sure! Here are your tags: ["a", "b"]
func extracted[T any](left, right byte) strategy[T] {
	return func(raw string) (T, bool) {
		var v T
		start := strings.IndexByte(raw, left)
		end := strings.LastIndexByte(raw, right)
		if start < 0 || end <= start {
			return v, false
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err != nil {
			return v, false
		}
		return v, true
	}
}
