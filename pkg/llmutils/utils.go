// Package llmutils provides small helpers shared by agents and tools.
package llmutils

import (
	"bytes"
	"encoding/json"
)

// ToJSON returns the compact JSON encoding of v,
// or an empty string if v cannot be encoded.
func ToJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// ToJSONIndent returns the indented JSON encoding of v.
func ToJSONIndent(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// CleanJSON strips markdown code fences a model may wrap around a JSON
// payload, returning the bare JSON bytes.
func CleanJSON(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("```")) {
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
			data = data[idx+1:]
		} else {
			data = bytes.TrimPrefix(data, []byte("```"))
		}
		data = bytes.TrimSuffix(bytes.TrimSpace(data), []byte("```"))
		data = bytes.TrimSpace(data)
	}
	return data
}
