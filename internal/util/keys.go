package util

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CanonicalJSON encodes v with map keys sorted at every depth and without
// HTML escaping. Identical logical values always produce identical bytes.
func CanonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// QueryKey returns "<resource>-<canonical params>". The resource comes first so
// that prefix deletes by resource hit every page of every filter combination.
func QueryKey(resource string, params map[string]any) (string, error) {
	b, err := CanonicalJSON(params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return resource + "-" + string(b), nil
}
