package output

import (
	"strings"
)

// RedactedValue is the placeholder used for masked secret data.
const RedactedValue = "***REDACTED***"

// sensitiveAnnotations lists annotations that contain sensitive data.
var sensitiveAnnotations = map[string]bool{
	"kubernetes.io/service-account.uid":   true,
	"kubernetes.io/service-account.name":  true,
	"kubernetes.io/service-account-token": true,
}

// MaskSecrets replaces secret data with redacted placeholders. Secrets inside
// list objects are masked too; items of a SecretList carry no kind of their
// own and are all treated as secrets.
func MaskSecrets(obj map[string]interface{}) map[string]interface{} {
	if obj == nil {
		return nil
	}

	// Create a deep copy to avoid modifying the original
	result := deepCopyMap(obj)

	if IsSecretResource(result) {
		maskSecretData(result)
		return result
	}

	if _, isList := result["items"].([]interface{}); isList {
		secretList := strings.EqualFold(kindOf(result), "SecretList")
		for _, item := range listItems(result) {
			if secretList || IsSecretResource(item) {
				maskSecretData(item)
			}
		}
	}

	return result
}

// maskSecretData masks the data and stringData fields of a Secret.
func maskSecretData(secret map[string]interface{}) {
	for _, field := range []string{"data", "stringData"} {
		values, ok := secret[field].(map[string]interface{})
		if !ok {
			continue
		}
		masked := make(map[string]interface{}, len(values))
		for key := range values {
			masked[key] = RedactedValue
		}
		secret[field] = masked
	}

	// Keep type field visible for context (e.g., kubernetes.io/tls)
	// but mask sensitive annotations
	maskSensitiveAnnotations(secret)
}

// maskSensitiveAnnotations masks known sensitive annotations.
func maskSensitiveAnnotations(obj map[string]interface{}) {
	metadata, ok := obj["metadata"].(map[string]interface{})
	if !ok {
		return
	}

	annotations, ok := metadata["annotations"].(map[string]interface{})
	if !ok {
		return
	}

	for key := range annotations {
		if sensitiveAnnotations[key] {
			annotations[key] = RedactedValue
		}
	}
}

// IsSecretResource checks if a resource is a Kubernetes Secret.
func IsSecretResource(obj map[string]interface{}) bool {
	if obj == nil {
		return false
	}

	return strings.EqualFold(kindOf(obj), "Secret")
}

func kindOf(obj map[string]interface{}) string {
	kind, _ := obj["kind"].(string)
	return kind
}
