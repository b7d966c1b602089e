package models

import "strings"

// Truthy interprets a front-matter value as a boolean flag.
func Truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "yes"
	default:
		return false
	}
}

// CloneMetadata returns a shallow copy of m so chunks never share a map with their document.
func CloneMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
