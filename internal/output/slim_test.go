package output

import (
	"reflect"
	"testing"
)

// fieldExists reports whether a value is present at the given field path.
func fieldExists(obj map[string]interface{}, path string) bool {
	if path == "" || obj == nil {
		return false
	}

	var current interface{} = obj
	for _, part := range splitFieldPath(path) {
		m, ok := current.(map[string]interface{})
		if !ok {
			return false
		}
		current, ok = m[part]
		if !ok {
			return false
		}
	}
	return true
}

func TestSlimResource(t *testing.T) {
	tests := []struct {
		name           string
		obj            map[string]interface{}
		excludedFields []string
		checkField     string
		shouldExist    bool
	}{
		{
			name:           "nil object",
			obj:            nil,
			excludedFields: nil,
			checkField:     "",
			shouldExist:    false,
		},
		{
			name: "removes managedFields",
			obj: map[string]interface{}{
				"metadata": map[string]interface{}{
					"name":          "test",
					"managedFields": []interface{}{"field1", "field2"},
				},
			},
			excludedFields: []string{"metadata.managedFields"},
			checkField:     "metadata.managedFields",
			shouldExist:    false,
		},
		{
			name: "preserves non-excluded fields",
			obj: map[string]interface{}{
				"metadata": map[string]interface{}{
					"name":      "test",
					"namespace": "default",
				},
			},
			excludedFields: []string{"metadata.managedFields"},
			checkField:     "metadata.name",
			shouldExist:    true,
		},
		{
			name: "removes nested annotation",
			obj: map[string]interface{}{
				"metadata": map[string]interface{}{
					"name": "test",
					"annotations": map[string]interface{}{
						"kubectl.kubernetes.io/last-applied-configuration": "long config",
						"custom-annotation": "keep this",
					},
				},
			},
			excludedFields: []string{"metadata.annotations.kubectl.kubernetes.io/last-applied-configuration"},
			checkField:     "metadata.annotations.kubectl.kubernetes.io/last-applied-configuration",
			shouldExist:    false,
		},
		{
			name: "keeps other annotations",
			obj: map[string]interface{}{
				"metadata": map[string]interface{}{
					"annotations": map[string]interface{}{
						"kubectl.kubernetes.io/last-applied-configuration": "long config",
						"custom-annotation": "keep this",
					},
				},
			},
			excludedFields: nil,
			checkField:     "metadata.annotations.custom-annotation",
			shouldExist:    true,
		},
		{
			name: "drops emptied annotations",
			obj: map[string]interface{}{
				"metadata": map[string]interface{}{
					"annotations": map[string]interface{}{
						"kubectl.kubernetes.io/last-applied-configuration": "long config",
					},
				},
			},
			excludedFields: nil,
			checkField:     "metadata.annotations",
			shouldExist:    false,
		},
		{
			name: "array wildcard",
			obj: map[string]interface{}{
				"status": map[string]interface{}{
					"conditions": []interface{}{
						map[string]interface{}{"type": "Ready", "lastTransitionTime": "2024-01-01T00:00:00Z"},
					},
				},
			},
			excludedFields: []string{"status.conditions[*].lastTransitionTime"},
			checkField:     "status.conditions",
			shouldExist:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SlimResource(tt.obj, tt.excludedFields)

			if tt.obj == nil {
				if result != nil {
					t.Error("Expected nil result for nil input")
				}
				return
			}

			// Check if field exists or not
			exists := fieldExists(result, tt.checkField)
			if exists != tt.shouldExist {
				t.Errorf("Field %q exists = %v, want %v", tt.checkField, exists, tt.shouldExist)
			}
		})
	}
}

func TestSlimResource_ArrayWildcardRemovesFromElements(t *testing.T) {
	obj := map[string]interface{}{
		"status": map[string]interface{}{
			"conditions": []interface{}{
				map[string]interface{}{"type": "Ready", "lastTransitionTime": "t1"},
				map[string]interface{}{"type": "Available", "lastTransitionTime": "t2"},
			},
		},
	}

	result := SlimResource(obj, []string{"status.conditions[*].lastTransitionTime"})

	conditions := result["status"].(map[string]interface{})["conditions"].([]interface{})
	for _, c := range conditions {
		cond := c.(map[string]interface{})
		if _, ok := cond["lastTransitionTime"]; ok {
			t.Errorf("lastTransitionTime should be removed from %v", cond["type"])
		}
		if _, ok := cond["type"]; !ok {
			t.Error("type should be preserved")
		}
	}
}

func TestSlimResource_List(t *testing.T) {
	obj := map[string]interface{}{
		"kind":       "PodList",
		"apiVersion": "v1",
		"metadata":   map[string]interface{}{"resourceVersion": "42"},
		"items": []interface{}{
			map[string]interface{}{
				"metadata": map[string]interface{}{"name": "a", "managedFields": []interface{}{"x"}},
			},
			map[string]interface{}{
				"metadata": map[string]interface{}{"name": "b", "managedFields": []interface{}{"y"}},
			},
		},
	}

	result := SlimResource(obj, nil)

	for _, item := range result["items"].([]interface{}) {
		if fieldExists(item.(map[string]interface{}), "metadata.managedFields") {
			t.Error("managedFields should be removed from list items")
		}
	}
	if !fieldExists(result, "metadata.resourceVersion") {
		t.Error("list metadata should be preserved")
	}
}

func TestSlimResource_DoesNotModifyOriginal(t *testing.T) {
	obj := map[string]interface{}{
		"metadata": map[string]interface{}{
			"name":          "test",
			"managedFields": []interface{}{"field1"},
		},
	}

	_ = SlimResource(obj, []string{"metadata.managedFields"})

	if !fieldExists(obj, "metadata.managedFields") {
		t.Error("Original object should not be modified")
	}
}

func TestSplitFieldPath(t *testing.T) {
	tests := []struct {
		path     string
		expected []string
	}{
		{"metadata.managedFields", []string{"metadata", "managedFields"}},
		{"status.conditions[*].lastProbeTime", []string{"status", "conditions[*]", "lastProbeTime"}},
		{
			"metadata.annotations.kubectl.kubernetes.io/last-applied-configuration",
			[]string{"metadata", "annotations", "kubectl.kubernetes.io/last-applied-configuration"},
		},
		{"metadata.labels.app.kubernetes.io/name", []string{"metadata", "labels", "app.kubernetes.io/name"}},
		{"metadata.labels", []string{"metadata", "labels"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result := splitFieldPath(tt.path)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("splitFieldPath(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestDeepCopyMap(t *testing.T) {
	original := map[string]interface{}{
		"string": "value",
		"number": int64(42),
		"nested": map[string]interface{}{
			"key": "nested-value",
		},
		"array": []interface{}{"a", "b"},
	}

	copied := deepCopyMap(original)

	// Modify the copy
	copied["string"] = "modified"
	copied["nested"].(map[string]interface{})["key"] = "modified"
	copied["array"].([]interface{})[0] = "modified"

	// Verify original is unchanged
	if original["string"] != "value" {
		t.Error("Original string was modified")
	}
	if original["nested"].(map[string]interface{})["key"] != "nested-value" {
		t.Error("Original nested map was modified")
	}
	if original["array"].([]interface{})[0] != "a" {
		t.Error("Original array was modified")
	}
}
