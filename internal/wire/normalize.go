// Package wire normalizes the remote service's heterogeneous response
// shapes into canonical types. The service is observed to return
// collections as a bare array, {items: [...]}, {data: [...]} or the
// doubly-wrapped {items: {items: [...]}}, and single entities either
// directly or under a wrapper key; nothing outside this package should
// ever pattern-match on raw JSON.
package wire

import (
	"bytes"
	"encoding/json"
)

// Shape tags which response variant was detected during normalization.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeBareArray
	ShapeItems
	ShapeData
	ShapeNestedItems
)

func (s Shape) String() string {
	switch s {
	case ShapeBareArray:
		return "bare_array"
	case ShapeItems:
		return "items"
	case ShapeData:
		return "data"
	case ShapeNestedItems:
		return "items.items"
	default:
		return "unrecognized"
	}
}

// Collection is the canonical form of a list response. Exact is true only
// when Count came from a server-reported count field; otherwise Count is
// the length of the extracted items, an approximation.
type Collection[T any] struct {
	Items []T
	Count int
	Exact bool
	Shape Shape
}

// envelope matches the wrapped collection variants. Items stays raw
// because it may itself be either an array or another wrapper.
type envelope struct {
	Items json.RawMessage `json:"items"`
	Data  json.RawMessage `json:"data"`
	Count *float64        `json:"count"`
}

// decodeEnvelope extracts the items array and the Shape tag from a raw response.
// It returns the raw array (nil when nothing list-like was found) and any
// server-reported count.
func decodeEnvelope(raw []byte) (arr json.RawMessage, count *float64, shape Shape) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil, ShapeUnrecognized
	}
	if trimmed[0] == '[' {
		return trimmed, nil, ShapeBareArray
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, nil, ShapeUnrecognized
	}

	if isArray(env.Items) {
		return env.Items, env.Count, ShapeItems
	}
	if isArray(env.Data) {
		return env.Data, env.Count, ShapeData
	}
	if isObject(env.Items) {
		var inner envelope
		if err := json.Unmarshal(env.Items, &inner); err == nil && isArray(inner.Items) {
			count := env.Count
			if count == nil {
				count = inner.Count
			}
			return inner.Items, count, ShapeNestedItems
		}
	}
	return nil, env.Count, ShapeUnrecognized
}

// NormalizeCollection normalizes a list response of unknown shape. Malformed input
// and unrecognized shapes yield an empty collection rather than an error:
// the caller's view degrades instead of breaking.
func NormalizeCollection[T any](raw []byte) Collection[T] {
	arr, count, shape := decodeEnvelope(raw)

	out := Collection[T]{Shape: shape}
	if arr != nil {
		if err := json.Unmarshal(arr, &out.Items); err != nil {
			out.Items = nil
		}
	}
	if count != nil {
		out.Count = int(*count)
		out.Exact = true
	} else {
		out.Count = len(out.Items)
	}
	return out
}

// NormalizeSingle normalizes a single-entity response: a direct object
// first, then each of wrapKeys in order (callers pass e.g. "user",
// "data"). ok is false when nothing decodable was found.
func NormalizeSingle[T any](raw []byte, wrapKeys ...string) (T, bool) {
	var zero T
	trimmed := bytes.TrimSpace(raw)
	if !isObject(trimmed) {
		return zero, false
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keyed); err != nil {
		return zero, false
	}
	for _, key := range wrapKeys {
		if inner, found := keyed[key]; found && isObject(inner) {
			var entity T
			if err := json.Unmarshal(inner, &entity); err == nil {
				return entity, true
			}
		}
	}

	var entity T
	if err := json.Unmarshal(trimmed, &entity); err != nil {
		return zero, false
	}
	return entity, true
}

// ScalarCount pulls a numeric count out of a response that may be a bare
// number, a {count: n} object, or a list shape whose items are counted.
// Used by the like-count endpoints, where all three occur.
func ScalarCount(raw []byte) int {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return int(n)
	}

	arr, count, _ := decodeEnvelope(trimmed)
	if count != nil {
		return int(*count)
	}
	if arr != nil {
		var items []json.RawMessage
		if err := json.Unmarshal(arr, &items); err == nil {
			return len(items)
		}
	}
	return 0
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}
