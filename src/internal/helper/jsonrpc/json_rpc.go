// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package jsonrpc

import (
	"encoding/json"
	"strings"
)

// Map returns a copy of temp with all keys lowercased, recursing into nested
// maps and slices. MCP clients are inconsistent about argument casing
// ("Network" vs "network"), and tool arguments are matched case-insensitively.
func Map(temp map[string]any) map[string]any {
	fixed := make(map[string]any, len(temp))
	for k, v := range temp {
		fixed[strings.ToLower(k)] = normalizeValue(v)
	}
	return fixed
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return Map(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

// UnmarshalFromMap decodes a generic JSON-RPC argument value (as produced by
// encoding/json into map[string]any or []any) into a typed destination by
// round-tripping through JSON.
//
// Parameters:
//   - src: Source value, typically a tool argument
//   - dest: Pointer to the destination value
//
// Returns:
//   - error: Marshaling or unmarshaling error
func UnmarshalFromMap(src any, dest any) error {
	data, err := json.Marshal(normalizeValue(src))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
