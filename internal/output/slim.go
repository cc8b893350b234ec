package output

import (
	"strings"
)

// SlimResource removes verbose fields from a resource map. List objects have
// the fields removed from every item.
func SlimResource(obj map[string]interface{}, excludedFields []string) map[string]interface{} {
	if obj == nil {
		return nil
	}

	if len(excludedFields) == 0 {
		excludedFields = DefaultExcludedFields()
	}

	// Create a deep copy to avoid modifying the original
	result := deepCopyMap(obj)

	for _, target := range listItems(result) {
		for _, field := range excludedFields {
			removeField(target, field)
		}
	}

	return result
}

// listItems returns the items of a list object, or the object itself.
func listItems(obj map[string]interface{}) []map[string]interface{} {
	items, ok := obj["items"].([]interface{})
	if !ok {
		return []map[string]interface{}{obj}
	}

	result := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			result = append(result, m)
		}
	}
	return result
}

// removeField removes a field at the specified path from a map.
// Supports dot notation for nested fields and [*] for array wildcards.
// Examples:
//   - "metadata.managedFields" -> removes obj["metadata"]["managedFields"]
//   - "status.conditions[*].lastTransitionTime" -> removes field from all array elements
//   - "metadata.annotations.kubectl.kubernetes.io/last-applied-configuration" -> removes one annotation
func removeField(obj map[string]interface{}, path string) {
	if obj == nil || path == "" {
		return
	}

	removeFieldRecursive(obj, splitFieldPath(path))
}

// splitFieldPath splits a field path on dots. Label and annotation keys
// contain dots themselves, so everything after "labels." or "annotations."
// is kept as one key.
func splitFieldPath(path string) []string {
	parts := strings.Split(path, ".")
	for i, part := range parts {
		if (part == "annotations" || part == "labels") && i+1 < len(parts) {
			return append(parts[:i+1:i+1], strings.Join(parts[i+1:], "."))
		}
	}
	return parts
}

// removeFieldRecursive handles the recursive field removal.
func removeFieldRecursive(obj map[string]interface{}, parts []string) {
	if len(parts) == 0 || obj == nil {
		return
	}

	current := parts[0]
	remaining := parts[1:]

	// Check for array wildcard
	if strings.HasSuffix(current, "[*]") {
		fieldName := strings.TrimSuffix(current, "[*]")
		array, ok := obj[fieldName].([]interface{})
		if !ok {
			return
		}

		for _, elem := range array {
			if elemMap, ok := elem.(map[string]interface{}); ok && len(remaining) > 0 {
				removeFieldRecursive(elemMap, remaining)
			}
		}
		return
	}

	if len(remaining) == 0 {
		delete(obj, current)
		return
	}

	nextMap, ok := obj[current].(map[string]interface{})
	if !ok {
		return
	}

	removeFieldRecursive(nextMap, remaining)

	// Drop annotation and label maps emptied by the removal
	if (current == "annotations" || current == "labels") && len(nextMap) == 0 {
		delete(obj, current)
	}
}

// deepCopyMap creates a deep copy of a map.
func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	result := make(map[string]interface{}, len(m))
	for k, v := range m {
		result[k] = deepCopyValue(v)
	}

	return result
}

// deepCopyValue creates a deep copy of a value.
func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(val)
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = deepCopyValue(item)
		}
		return result
	default:
		// Primitives (string, int64, bool, etc.) are copied by value
		return v
	}
}
