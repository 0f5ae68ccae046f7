package vectorstore

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// matchesFilter evaluates the metadata filter language shared with the
// pgvector store against an in-memory metadata map.
func matchesFilter(metadata map[string]any, filter map[string]any) (bool, error) {
	for key, value := range filter {
		switch key {
		case "$and", "$or":
			list, ok := value.([]any)
			if !ok {
				return false, fmt.Errorf("value for %s must be a list of conditions", key)
			}
			if len(list) == 0 {
				continue
			}

			matched := key == "$and"
			for _, item := range list {
				sub, ok := item.(map[string]any)
				if !ok {
					return false, fmt.Errorf("item in %s list must be a JSON object", key)
				}
				m, err := matchesFilter(metadata, sub)
				if err != nil {
					return false, err
				}
				if key == "$and" {
					matched = matched && m
				} else {
					matched = matched || m
				}
			}
			if !matched {
				return false, nil
			}

		case "$not":
			sub, ok := value.(map[string]any)
			if !ok {
				return false, fmt.Errorf("value for $not must be a JSON object")
			}
			m, err := matchesFilter(metadata, sub)
			if err != nil {
				return false, err
			}
			if m {
				return false, nil
			}

		default:
			got, ok := metadata[key]
			if !ok || !metadataEqual(got, value) {
				return false, nil
			}
		}
	}
	return true, nil
}

// metadataEqual compares a stored metadata value with a filter value.
// Numbers compare by value whatever their Go type, so a filter decoded from
// JSON (float64) matches an int chunk index.
func metadataEqual(got, want any) bool {
	if g, ok := asFloat(got); ok {
		w, ok := asFloat(want)
		return ok && g == w
	}
	return reflect.DeepEqual(got, want)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
